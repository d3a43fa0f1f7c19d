package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nested struct {
	Title string `json:"title"`
	Value uint   `json:"value"`
}

var complexValue = struct {
	Name    string           `json:"name"`
	List    []any            `json:"list"`
	Nested  nested           `json:"nested"`
	Object  map[string]any   `json:"object"`
	ObjList []map[string]any `json:"objList"`
}{
	Name:   "complex",
	List:   []any{"first", "second"},
	Nested: nested{Title: "hello", Value: 500000000},
	Object: map[string]any{"obj1": 1, "obj2": -2},
	ObjList: []map[string]any{
		{"item1": 1, "item2": 2},
		{"item3": 3e7, "item4": 2.123456e7},
	},
}

func Test_Columnize(t *testing.T) {
	var p Printable
	require.NoError(t, p.FromStruct(complexValue))

	minwidth := 20
	s := p.Columnize(*NewPrintableFormat(minwidth, 0, 0, byte(' ')))
	rows := strings.Split(s, "\n")
	for _, row := range rows {
		if row != "" {
			// the delimiter should be in the same position in all the rows
			assert.Equal(t, minwidth, strings.Index(row, "|"))
		}
	}

	// sorted keys and no scientific notation
	assert.True(t, strings.Index(s, "list") < strings.Index(s, "name"))
	assert.Contains(t, s, "500000000")
	assert.Contains(t, s, "21234560")
}

func Test_PrettyJSON(t *testing.T) {
	s, err := PrettyJSON(map[string]string{"node": "0x01"})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"node\": \"0x01\"\n}", s)
}
