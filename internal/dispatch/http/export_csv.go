package dispatchhttp

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/odyssey-erp/dispatch-recon/internal/dispatch"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

var itemsCSVHeader = []string{
	"Invoice No", "Invoice ID", "Invoice Date", "Customer Code", "Customer",
	"Salesman", "Sales Type", "Dispatch Plan", "Status", "Invoice Net",
	"Line ID", "Product ID", "Product", "Unit", "Quantity", "Unit Price",
	"Line Gross", "Discount", "Line Net",
}

type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer, flushEvery: csvFlushEvery}
}

func (s *csvStreamer) writeComment(line string) error {
	_, err := s.buf.WriteString(line + "\r\n")
	return err
}

func (s *csvStreamer) writeRow(row []string) error {
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.flushEvery > 0 && s.pendingLines >= s.flushEvery {
		return s.Flush()
	}
	return nil
}

func (s *csvStreamer) Flush() error {
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

// writeItemsCSV streams itemized rows, one line per invoice line.
func writeItemsCSV(w io.Writer, res dispatch.ItemizedResult) error {
	streamer := newCSVStreamer(w)
	if err := streamer.writeComment(fmt.Sprintf("# Range: %s..%s", res.Range.From, res.Range.To)); err != nil {
		return err
	}
	if err := streamer.writeRow(itemsCSVHeader); err != nil {
		return err
	}
	for _, item := range res.Data {
		if err := streamer.writeRow([]string{
			item.InvoiceNo,
			strconv.FormatInt(item.InvoiceID, 10),
			item.InvoiceDate,
			item.CustomerCode,
			item.Customer,
			item.Salesman,
			item.SalesType,
			item.DispatchPlan,
			string(item.Status),
			formatMoney(item.NetAmount),
			strconv.FormatInt(item.LineID, 10),
			strconv.FormatInt(item.ProductID, 10),
			item.Product,
			item.Unit,
			strconv.FormatFloat(item.Quantity, 'f', -1, 64),
			formatMoney(item.UnitPrice),
			formatMoney(item.Gross),
			formatMoney(item.Discount),
			formatMoney(item.Net),
		}); err != nil {
			return err
		}
	}
	return streamer.Flush()
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
