package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"gitlab.com/d21d3q/golpp/internal/store"
	"gitlab.com/d21d3q/golpp/pkg/golpp"
)

const (
	outputJSON  = "json"
	outputTable = "table"
)

func render(w io.Writer, format string, result golpp.Result) error {
	if format != outputTable {
		_, err := fmt.Fprintln(w, result.String())
		return err
	}
	if u := result.Uplink; u != nil {
		fmt.Fprintf(w, "DevAddr %s  FCnt %d  FPort %d\n", u.DevAddrString(), u.FCnt, u.FPort)
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Value"})
	table.SetAutoWrapText(false)
	result.Fields.Range(func(key string, v any) bool {
		table.Append([]string{key, formatValue(v)})
		return true
	})
	table.Render()
	return nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case golpp.Vector:
		return fmt.Sprintf("x=%g y=%g z=%g", val.X, val.Y, val.Z)
	case golpp.Coordinate:
		return fmt.Sprintf("lat=%g lon=%g alt=%g", val.Latitude, val.Longitude, val.Altitude)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

func renderTypes(w io.Writer, types []golpp.TypeDescriptor) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Name", "Size", "Kind"})
	for _, t := range types {
		kind := "custom"
		if t.Standard {
			kind = "standard"
		}
		table.Append([]string{fmt.Sprintf("0x%02X", t.ID), t.Name, strconv.Itoa(t.Size), kind})
	}
	table.Render()
}

func renderRecords(w io.Writer, records []golpp.Record) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Offset", "Channel", "Type", "Key", "Data"})
	for _, r := range records {
		table.Append([]string{
			strconv.Itoa(r.Offset),
			strconv.Itoa(int(r.Channel)),
			fmt.Sprintf("0x%02X", r.Type.ID),
			r.Key(),
			golpp.Raw(r.Data).String(),
		})
	}
	table.Render()
}

func renderHistory(w io.Writer, entries []store.Entry) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Time", "Device", "FCnt", "FPort", "Fields"})
	for _, e := range entries {
		table.Append([]string{
			e.Time.Format("2006-01-02 15:04:05"),
			e.Device,
			strconv.FormatUint(uint64(e.FCnt), 10),
			strconv.Itoa(e.FPort),
			string(e.Fields),
		})
	}
	table.Render()
}
