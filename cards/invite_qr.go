package cards

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

const inviteQRSize = 512

// InviteQR возвращает PNG с QR-кодом ссылки-приглашения.
func InviteQR(link string) ([]byte, error) {
	if link == "" {
		return nil, fmt.Errorf("empty invite link")
	}
	png, err := qrcode.Encode(link, qrcode.Medium, inviteQRSize)
	if err != nil {
		return nil, fmt.Errorf("encode invite qr: %w", err)
	}
	return png, nil
}
