package handlers

import (
	"net/http"

	qr "github.com/skip2/go-qrcode"
)

// TableQRHandler serves the invite for /table/qr/{id} as a PNG. The image
// carries a live invite, so it is only served to loopback clients.
func (s *TableServer) TableQRHandler(w http.ResponseWriter, r *http.Request) {
	if !isLoopback(r) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	h, ok := s.lookup(w, r)
	if !ok {
		return
	}
	invite, err := s.InviteURL(h.ID)
	if err != nil {
		http.Error(w, "Invite generation failed", http.StatusInternalServerError)
		return
	}
	png, err := qr.Encode(invite, qr.Medium, 256)
	if err != nil {
		http.Error(w, "QR generation failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// InviteQR renders an invite URL as a QR code for a terminal.
func InviteQR(invite string) (string, error) {
	code, err := qr.New(invite, qr.Medium)
	if err != nil {
		return "", err
	}
	return code.ToSmallString(false), nil
}
