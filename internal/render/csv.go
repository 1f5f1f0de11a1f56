package render

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/roach88/benchy/internal/diagram"
)

// CSV writes d as comma-separated values. Empty cells stay empty.
func CSV(w io.Writer, d *diagram.Diagram) error {
	g, err := layout(d)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(g.header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(g.rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}
