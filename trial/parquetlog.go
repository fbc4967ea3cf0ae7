package trial

import (
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// ParquetLog buffers Records into a Snappy-compressed Parquet file. Rows reach
// the file when a row group is flushed or on Close.
type ParquetLog struct {
	pw     *parquet.GenericWriter[Record]
	closer io.Closer
}

// NewParquetLog writes to w. Close finalizes the footer but does not close w.
func NewParquetLog(w io.Writer) *ParquetLog {
	return &ParquetLog{pw: parquet.NewGenericWriter[Record](w, parquet.Compression(&parquet.Snappy))}
}

// CreateParquetLog truncates path and writes a new file there.
func CreateParquetLog(path string) (*ParquetLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	l := NewParquetLog(f)
	l.closer = f
	return l, nil
}

func (l *ParquetLog) Append(r Record) error {
	_, err := l.pw.Write([]Record{r})
	return err
}

func (l *ParquetLog) Close() error {
	err := l.pw.Close()
	if l.closer != nil {
		if cerr := l.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// ReadParquet reads every row of a Record file.
func ReadParquet(ra io.ReaderAt) ([]Record, error) {
	gr := parquet.NewGenericReader[Record](ra)
	defer gr.Close()

	out := make([]Record, 0, 256)
	batch := make([]Record, 256)
	for {
		n, err := gr.Read(batch)
		if n > 0 {
			out = append(out, batch[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReadParquetFile opens path and reads it with ReadParquet.
func ReadParquetFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadParquet(f)
}
