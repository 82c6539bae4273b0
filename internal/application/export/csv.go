package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func writeCSV(w io.Writer, enc Encoding, header []string, rows [][]any) error {
	out := w
	var tw *transform.Writer
	switch enc {
	case EncodingLatin1:
		// Los caracteres fuera de Windows-1252 se reemplazan en vez de abortar la descarga.
		tw = transform.NewWriter(w, encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()))
		out = tw
	default:
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("escribir BOM: %w", err)
		}
	}

	cw := csv.NewWriter(out)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("escribir encabezado CSV: %w", err)
	}
	record := make([]string, len(header))
	for _, row := range rows {
		for i, v := range row {
			record[i] = cellText(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("escribir fila CSV: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("escribir CSV: %w", err)
	}
	if tw != nil {
		if err := tw.Close(); err != nil {
			return fmt.Errorf("cerrar codificador Windows-1252: %w", err)
		}
	}
	return nil
}
