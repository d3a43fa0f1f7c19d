package main

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/0xsequence/urkit/sonic"
	"github.com/spf13/cobra"
)

type printableFormat struct {
	minwidth int
	tabwidth int
	padding  int
	padchar  byte
}

// NewPrintableFormat returns a customized configuration format
func NewPrintableFormat(minwidth, tabwidth, padding int, padchar byte) *printableFormat {
	return &printableFormat{minwidth, tabwidth, padding, padchar}
}

var defaultPrintableFormat = NewPrintableFormat(20, 0, 0, byte(' '))

// Printable is a generic key-value (map) structure that could contain nested objects.
type Printable map[string]any

// PrettyJSON prints an object in "prettified" JSON format
func PrettyJSON(toJSON any) (string, error) {
	b, err := sonic.Config.MarshalIndent(toJSON, "", "  ")
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(b), "\n"), nil
}

// FromStruct converts a struct into a Printable using, when available, JSON field names as keys
func (p *Printable) FromStruct(input any) error {
	data, err := sonic.Config.Marshal(input)
	if err != nil {
		return err
	}
	return sonic.Config.Unmarshal(data, p)
}

// Columnize returns a formatted-in-columns (vertically aligned) string based on a provided configuration.
// Keys are sorted.
func (p *Printable) Columnize(pf printableFormat) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, pf.minwidth, pf.tabwidth, pf.padding, pf.padchar, tabwriter.Debug)
	for _, k := range sortedKeys(*p) {
		printKeyValue(w, k, (*p)[k])
	}
	w.Flush()

	return buf.String()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func printKeyValue(w *tabwriter.Writer, key string, value any) {
	switch t := value.(type) {
	// NOTE: Printable is not directly inferred as map[string]any therefore explicit reference is necessary
	case map[string]any:
		fmt.Fprintln(w, key, "\t")
		for _, tk := range sortedKeys(t) {
			printKeyValue(w, "\t "+tk, t[tk])
		}
	case []any:
		fmt.Fprintln(w, key, "\t")
		for _, elem := range t {
			elemMap, ok := elem.(map[string]any)
			if ok {
				for _, tk := range sortedKeys(elemMap) {
					printKeyValue(w, "\t "+tk, elemMap[tk])
				}
				fmt.Fprintln(w, "\t", "\t")
			} else {
				fmt.Fprintln(w, "\t", customFormat(elem))
			}
		}
	default:
		// custom format for numbers to avoid scientific notation
		fmt.Fprintf(w, "%s\t %s\n", key, customFormat(value))
	}
}

func customFormat(value any) string {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return formatFloat(v)
	default:
		return fmt.Sprintf("%v", value)
	}
}

func formatFloat(f any) string {
	str := fmt.Sprintf("%v", f)
	if strings.ContainsAny(str, "eE.") {
		if floatValue, err := strconv.ParseFloat(str, 64); err == nil {
			return strconv.FormatFloat(floatValue, 'f', -1, 64)
		}
	}

	return str
}

// printObject writes v as JSON, or in columns.
func printObject(cmd *cobra.Command, v any, asJSON bool) error {
	if asJSON {
		s, err := PrettyJSON(v)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), s)
		return nil
	}

	var p Printable
	if err := p.FromStruct(v); err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), p.Columnize(*defaultPrintableFormat))
	return nil
}
