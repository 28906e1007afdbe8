package model

import (
	"club-registration/common/constant"
	"encoding/json"
	"strconv"
	"strings"
)

type EventFeeInfo struct {
	Id      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Fee     int64  `json:"fee"`
	QrImage string `json:"qr_image,omitempty"`
}

// EventApiResponse is the raw backend shape. The fee arrives as a number, a
// numeric string, or the literal "free" depending on the event.
type EventApiResponse struct {
	Id      string          `json:"id"`
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Fee     json.RawMessage `json:"fee"`
	QrImage string          `json:"qr_image"`
}

func (r EventApiResponse) ToFeeInfo() EventFeeInfo {
	return EventFeeInfo{
		Id:      r.Id,
		Name:    r.Name,
		Type:    r.Type,
		Fee:     NormalizeFee(r.Fee),
		QrImage: r.QrImage,
	}
}

// NormalizeFee maps every observed fee shape to a rupee amount. Unparsable
// values resolve to 0; callers must still treat an unresolved fetch as blocking.
func NormalizeFee(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}

	var asNumber int64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		if asNumber < 0 {
			return 0
		}
		return asNumber
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err != nil {
		return 0
	}

	asString = strings.TrimSpace(asString)
	if strings.EqualFold(asString, constant.FeeFreeToken) {
		return 0
	}

	parsed, err := strconv.ParseInt(asString, 10, 64)
	if err != nil || parsed < 0 {
		return 0
	}

	return parsed
}
