package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Status of a charge as seen by clients polling for it.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusPaid     Status = "PAID"
	StatusNotFound Status = "NOT_FOUND" // read result only, never stored
)

// ExpirationSeconds is how long a charge stays payable at the gateway.
const ExpirationSeconds = 300

// DefaultDescription is sent to the payer when the caller gives none.
const DefaultDescription = "Pagamento via PIX Efí"

// MaxDescriptionLen is the gateway limit for solicitacaoPagador.
const MaxDescriptionLen = 140

// Charge is a PIX immediate charge (cob) issued by the gateway.
type Charge struct {
	TxID              string
	LocationID        int64
	Location          string
	Amount            string
	Description       string
	ExpirationSeconds int
	GatewayStatus     string // cob status at creation, e.g. ATIVA
}

// QRCode is the payable representation of a charge location.
type QRCode struct {
	CopyPaste string // "pix copia e cola" payload
	Image     string // data URI of the PNG
	Link      string // gateway-hosted payment page
}

// ValidationError is a client input problem; its message is safe to return.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var ErrAmountRequired = &ValidationError{Field: "valor", Message: "O campo 'valor' é obrigatório."}

var amountPattern = regexp.MustCompile(`^(\d{1,10})(?:\.(\d{1,2}))?$`)

// ParseAmount normalizes the "valor" field, given either as a JSON number or
// a JSON string, to the gateway's decimal format with two fraction digits.
func ParseAmount(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte("false")) {
		return "", ErrAmountRequired
	}

	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return "", invalidAmount(string(raw))
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return "", ErrAmountRequired
		}
	} else {
		text = string(raw)
	}

	m := amountPattern.FindStringSubmatch(text)
	if m == nil {
		return "", invalidAmount(text)
	}
	whole, frac := strings.TrimLeft(m[1], "0"), m[2]
	if whole == "" {
		whole = "0"
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "0" && frac == "00" {
		return "", ErrAmountRequired
	}
	return whole + "." + frac, nil
}

func invalidAmount(v string) error {
	return &ValidationError{Field: "valor", Message: fmt.Sprintf("O campo 'valor' é inválido: %s", v)}
}

// NormalizeDescription applies the default and the gateway length limit.
func NormalizeDescription(d string) string {
	d = strings.TrimSpace(d)
	if d == "" {
		return DefaultDescription
	}
	if r := []rune(d); len(r) > MaxDescriptionLen {
		return string(r[:MaxDescriptionLen])
	}
	return d
}
