// Package staircase implements the adaptive procedures that pick the next
// trial's difficulty from earlier responses.
//
// QuestState is a Bayesian threshold estimator over a discrete grid with a
// Weibull likelihood. Quest wraps it with warm-up exclusion and a two-phase
// stop rule. UpDown is a transformed up-down rule on an integer step size,
// counting reversals as changes in the direction of rule-triggered moves.
package staircase
