package promptpay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// EMV-QR tag ids used by the Thai QR payment standard.
const (
	idPayloadFormat       = "00"
	idPOIMethod           = "01"
	idMerchantInformation = "29"
	idTransactionCurrency = "53"
	idTransactionAmount   = "54"
	idCountryCode         = "58"
	idCRC                 = "63"

	payloadFormatEMV = "01"
	poiStatic        = "11"
	poiDynamic       = "12"

	guidPromptPay = "A000000677010111"
	targetGUID    = "00"
	targetPhone   = "01"
	targetTaxID   = "02"
	targetEWallet = "03"

	currencyTHB = "764"
	countryTH   = "TH"
)

// ErrInvalidID is returned for identifiers that are not a 10 digit mobile
// number, a 13 digit national or tax id, or a 15 digit e-wallet id.
var ErrInvalidID = errors.New("promptpay: invalid promptpay id")

func field(id, value string) string {
	return fmt.Sprintf("%s%02d%s", id, len(value), value)
}

// target classifies id and returns its EMV sub-tag and formatted value.
func target(id string) (string, string, error) {
	var digits strings.Builder
	for _, r := range id {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '-' || r == ' ' || r == '+':
		default:
			return "", "", ErrInvalidID
		}
	}
	d := digits.String()

	switch {
	case len(d) == 15:
		return targetEWallet, d, nil
	case len(d) == 13:
		return targetTaxID, d, nil
	case len(d) == 10 && d[0] == '0':
		// 0812345678 -> 0066812345678
		return targetPhone, "0066" + d[1:], nil
	case len(d) == 11 && strings.HasPrefix(d, "66"):
		return targetPhone, "00" + d, nil
	}
	return "", "", ErrInvalidID
}

// Payload builds the EMV-QR string for id. A zero amount produces a static
// QR the payer fills in, a positive amount a dynamic one.
func Payload(id string, amount decimal.Decimal) (string, error) {
	if amount.IsNegative() {
		return "", fmt.Errorf("promptpay: negative amount %s", amount)
	}
	tag, value, err := target(id)
	if err != nil {
		return "", err
	}

	poi := poiStatic
	if amount.IsPositive() {
		poi = poiDynamic
	}

	var b strings.Builder
	b.WriteString(field(idPayloadFormat, payloadFormatEMV))
	b.WriteString(field(idPOIMethod, poi))
	b.WriteString(field(idMerchantInformation, field(targetGUID, guidPromptPay)+field(tag, value)))
	b.WriteString(field(idCountryCode, countryTH))
	b.WriteString(field(idTransactionCurrency, currencyTHB))
	if amount.IsPositive() {
		b.WriteString(field(idTransactionAmount, amount.StringFixed(2)))
	}
	b.WriteString(idCRC + "04")
	b.WriteString(fmt.Sprintf("%04X", crc16([]byte(b.String()))))
	return b.String(), nil
}

// crc16 is CRC-16/CCITT-FALSE: polynomial 0x1021, initial value 0xFFFF.
func crc16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, c := range data {
		crc ^= uint16(c) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
