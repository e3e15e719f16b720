package main

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Codificaciones aceptadas en --encoding.
const (
	encodingAuto   = "auto"
	encodingUTF8   = "utf-8"
	encodingLatin1 = "latin1"
)

// itemRow línea "item;codigo;nome;categoria;unidade;qtd_minima;qtd_inicial".
type itemRow struct {
	line       int
	code       string
	name       string
	category   string
	unit       string
	minQty     int
	initialQty int
}

// unitRow línea "onu;codigo;modelo;serial;fornecedor".
type unitRow struct {
	line     int
	code     string
	model    string
	serial   string
	supplier string
}

type catalogFile struct {
	items []itemRow
	units []unitRow
}

// decodeInput devuelve el contenido en UTF-8. En modo auto, un archivo que no es
// UTF-8 válido se interpreta como ISO-8859-1 (planillas exportadas en Windows).
func decodeInput(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case encodingUTF8, "utf8":
		return r, nil
	case encodingLatin1, "iso-8859-1", "iso8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case encodingAuto, "":
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
		if utf8.Valid(raw) {
			return bytes.NewReader(raw), nil
		}
		return transform.NewReader(bytes.NewReader(raw), charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("codificación no soportada: %q", encoding)
	}
}

// parseCatalog lee el CSV separado por ';'. Se ignoran líneas vacías, comentarios (#)
// y la cabecera que empieza por "tipo". Los errores indican el número de línea.
func parseCatalog(r io.Reader) (*catalogFile, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	out := &catalogFile{}
	var errs []error
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if len(rec) == 0 || (len(rec) == 1 && rec[0] == "") {
			continue
		}
		switch strings.ToLower(rec[0]) {
		case "tipo":
			continue
		case "item":
			row, err := parseItem(line, rec)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			out.items = append(out.items, row)
		case "onu":
			row, err := parseUnit(line, rec)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			out.units = append(out.units, row)
		default:
			errs = append(errs, fmt.Errorf("línea %d: tipo desconocido %q", line, rec[0]))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func parseItem(line int, rec []string) (itemRow, error) {
	if len(rec) < 3 || rec[2] == "" {
		return itemRow{}, fmt.Errorf("línea %d: item requiere codigo;nome", line)
	}
	row := itemRow{line: line, code: rec[1], name: rec[2]}
	row.category = field(rec, 3)
	row.unit = field(rec, 4)
	var err error
	if row.minQty, err = quantity(field(rec, 5)); err != nil {
		return itemRow{}, fmt.Errorf("línea %d: qtd_minima: %w", line, err)
	}
	if row.initialQty, err = quantity(field(rec, 6)); err != nil {
		return itemRow{}, fmt.Errorf("línea %d: qtd_inicial: %w", line, err)
	}
	return row, nil
}

func parseUnit(line int, rec []string) (unitRow, error) {
	if len(rec) < 2 || rec[1] == "" {
		return unitRow{}, fmt.Errorf("línea %d: onu requiere codigo", line)
	}
	return unitRow{
		line:     line,
		code:     rec[1],
		model:    field(rec, 2),
		serial:   field(rec, 3),
		supplier: field(rec, 4),
	}, nil
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

func quantity(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("número inválido %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("cantidad negativa %d", n)
	}
	return n, nil
}
