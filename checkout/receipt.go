package checkout

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"mithai/models"
	"mithai/utils"
)

var receiptSecret = []byte(receiptKey())

func receiptKey() string {
	if v := os.Getenv("RECEIPT_SECRET"); v != "" {
		return v
	}
	return "dev-receipt-secret"
}

// receiptPayload returns ownerID|orderID|signature for verification at
// pickup.
func receiptPayload(ownerID, orderID string) string {
	data := fmt.Sprintf("%s|%s", ownerID, orderID)
	h := hmac.New(sha256.New, receiptSecret)
	h.Write([]byte(data))
	sig := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return fmt.Sprintf("%s|%s", data, sig)
}

// Receipt renders the caller's most recent order as a PDF with a
// signed QR code.
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := requestCtx(r)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	owner := models.AccountOwner(userID)
	lines, err := h.store.OrderLines(ctx, owner)
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	if len(lines) == 0 {
		utils.RespondWithDomainError(w, models.ErrNotFound)
		return
	}

	// Lines come back newest first; one checkout shares one timestamp.
	latest := lines[:0:0]
	for _, ln := range lines {
		if !ln.CreatedAt.Equal(lines[0].CreatedAt) {
			break
		}
		latest = append(latest, ln)
	}

	name := h.ownerName(ctx, owner)
	pdfBytes, err := renderReceipt(name, latest)
	if err != nil {
		log.Println("Receipt render error:", err)
		http.Error(w, "Failed to generate receipt", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="receipt.pdf"`)
	w.Write(pdfBytes)
}

func renderReceipt(customerName string, lines []models.OrderLine) ([]byte, error) {
	qrPNG, err := qrcode.Encode(receiptPayload(lines[0].Owner.ID, lines[0].OrderID), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Order Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Customer: %s", customerName))
	pdf.Ln(8)
	pdf.Cell(0, 8, fmt.Sprintf("Placed: %s", lines[0].CreatedAt.Format("2006-01-02 15:04")))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(80, 8, "Item")
	pdf.Cell(25, 8, "Qty")
	pdf.Cell(35, 8, "Unit Price")
	pdf.Cell(35, 8, "Total")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 12)
	var total float64
	for _, ln := range lines {
		lineTotal := ln.UnitPrice * float64(ln.Quantity)
		total += lineTotal
		pdf.Cell(80, 8, ln.ItemName)
		pdf.Cell(25, 8, fmt.Sprintf("%d", ln.Quantity))
		pdf.Cell(35, 8, fmt.Sprintf("%.2f", ln.UnitPrice))
		pdf.Cell(35, 8, fmt.Sprintf("%.2f", lineTotal))
		pdf.Ln(8)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Grand Total: %.2f", total))
	pdf.Ln(12)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 10, pdf.GetY(), 50, 50, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}
