package receipt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const textWidth = 59

// WriteText renders doc as a fixed-width table.
func WriteText(w io.Writer, doc Document) error {
	bw := bufio.NewWriter(w)
	rule := strings.Repeat("-", textWidth)

	fmt.Fprintln(bw, doc.Title)
	fmt.Fprintf(bw, "Transacción: %s\n", doc.TransactionID)
	fmt.Fprintf(bw, "Fecha: %s\n", doc.Date)
	if doc.User != "" {
		fmt.Fprintf(bw, "Usuario: %s\n", doc.User)
	}
	if doc.Agency != "" {
		fmt.Fprintf(bw, "Agencia: %s\n", doc.Agency)
	}
	fmt.Fprintln(bw)

	fmt.Fprintf(bw, "%-30s %6s %10s %10s\n", "Producto", "Cant.", "FC Unidad", "Subtotal")
	fmt.Fprintln(bw, rule)
	for _, row := range doc.Rows {
		fmt.Fprintf(bw, "%-30s %6d %10d %10d\n", truncate(row.Name, nameWidth), row.Quantity, row.UnitPrice, row.Subtotal)
	}
	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "%-40s %18s\n", "Total", fmt.Sprintf("%d FC", doc.Total))
	fmt.Fprintf(bw, "%-40s %18s\n", "Saldo restante", fmt.Sprintf("%d FC", doc.Balance))
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, doc.Note)

	return bw.Flush()
}
