package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fjod/fitstore/internal/domain"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCatalog(w io.Writer, items []domain.CatalogItem) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNOMBRE\tFC\tSTOCK\tCATEGORÍA\tTALLA\tMARCA")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			it.ID, it.Name, it.Fitcoins, it.Stock, dash(it.Category), dash(it.Size), dash(it.Brand))
	}
	return tw.Flush()
}

func writeReceipts(w io.Writer, receipts []domain.IssuedReceipt) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFECHA\tTOTAL\tSALDO\tPRODUCTOS")
	for _, r := range receipts {
		names := make([]string, 0, len(r.Lines))
		for _, l := range r.Lines {
			names = append(names, fmt.Sprintf("%dx %s", l.Quantity, l.Name))
		}
		date := "-"
		if !r.Receipt.Datetime.IsZero() {
			date = r.Receipt.Datetime.UTC().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			r.ID(), date, r.Receipt.Total, r.Receipt.Balance, strings.Join(names, ", "))
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
