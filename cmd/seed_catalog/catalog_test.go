package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `tipo;codigo;nome;categoria;unidade;qtd_minima;qtd_inicial
# consumibles
item;CB-DROP;Cabo drop 1FO;cabos;m;100;2000
item;;Conector SC/APC;conectores;un;;

onu;ZTEG1A2B3C4D;F601;ZTEG1A2B3C4D;ZTE
onu; hwtc-001
`

func TestParseCatalog_ItemsAndUnits(t *testing.T) {
	c, err := parseCatalog(strings.NewReader(sampleCatalog))
	require.NoError(t, err)
	require.Len(t, c.items, 2)
	require.Len(t, c.units, 2)

	assert.Equal(t, "CB-DROP", c.items[0].code)
	assert.Equal(t, "Cabo drop 1FO", c.items[0].name)
	assert.Equal(t, 100, c.items[0].minQty)
	assert.Equal(t, 2000, c.items[0].initialQty)
	assert.Equal(t, 3, c.items[0].line)

	assert.Equal(t, "", c.items[1].code)
	assert.Equal(t, 0, c.items[1].minQty)
	assert.Equal(t, 0, c.items[1].initialQty)

	assert.Equal(t, "ZTE", c.units[0].supplier)
	assert.Equal(t, "hwtc-001", c.units[1].code)
	assert.Equal(t, "", c.units[1].model)
}

func TestParseCatalog_CollectsLineErrors(t *testing.T) {
	input := "item;X;Nome;;;-1;0\nitem;Y\nkit;Z\nonu;\n"
	_, err := parseCatalog(strings.NewReader(input))
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "línea 1")
	assert.Contains(t, msg, "línea 2")
	assert.Contains(t, msg, "línea 3")
	assert.Contains(t, msg, "línea 4")
}

func TestDecodeInput(t *testing.T) {
	latin1 := []byte("item;ABR;Abra\xe7adeira;;un;0;5\n")

	t.Run("auto detecta latin1", func(t *testing.T) {
		r, err := decodeInput(bytes.NewReader(latin1), encodingAuto)
		require.NoError(t, err)
		out, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Contains(t, string(out), "Abraçadeira")
	})

	t.Run("auto conserva utf-8 y quita BOM", func(t *testing.T) {
		r, err := decodeInput(strings.NewReader("\xef\xbb\xbfitem;ABR;Abraçadeira\n"), encodingAuto)
		require.NoError(t, err)
		out, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "item;ABR;Abraçadeira\n", string(out))
	})

	t.Run("latin1 explícito", func(t *testing.T) {
		r, err := decodeInput(bytes.NewReader(latin1), encodingLatin1)
		require.NoError(t, err)
		c, err := parseCatalog(r)
		require.NoError(t, err)
		require.Len(t, c.items, 1)
		assert.Equal(t, "Abraçadeira", c.items[0].name)
		assert.Equal(t, 5, c.items[0].initialQty)
	})

	t.Run("codificación desconocida", func(t *testing.T) {
		_, err := decodeInput(strings.NewReader(""), "ebcdic")
		assert.Error(t, err)
	})
}
