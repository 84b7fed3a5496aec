// Package codec decodes and encodes stream entries.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/email4-dev/mailer/internal/domain"
	"github.com/tidwall/gjson"
)

// ErrMalformed is returned by Decode when a required field is missing or a
// numeric/nested field fails to parse. Decode failure is always
// non-retriable and routes the raw entry to the dead-letter sink.
var ErrMalformed = errors.New("malformed stream entry")

// Decode turns the flat field map delivered by the stream client into a
// Message. Unknown keys are ignored. id is the stream's own entry id,
// supplied separately because it is not part of the field map.
func Decode(id string, values map[string]string) (*domain.Message, error) {
	hex, form, origin := values["hex"], values["form_id"], values["origin"]
	if hex == "" || form == "" || origin == "" {
		return nil, fmt.Errorf("%w: missing hex/form_id/origin", ErrMalformed)
	}

	rawFields, ok := values["fields"]
	if !ok {
		return nil, fmt.Errorf("%w: missing fields", ErrMalformed)
	}
	fields, err := decodeFields(rawFields)
	if err != nil {
		return nil, fmt.Errorf("%w: fields: %v", ErrMalformed, err)
	}

	attachmentCount, err := parseNonNegativeInt(values["attachment_count"])
	if err != nil {
		return nil, fmt.Errorf("%w: attachment_count: %v", ErrMalformed, err)
	}

	failCount := 0
	if raw, present := values["fail_count"]; present {
		failCount, err = parseNonNegativeInt(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: fail_count: %v", ErrMalformed, err)
		}
	}

	return &domain.Message{
		ID:              id,
		Hex:             hex,
		FormID:          form,
		Origin:          origin,
		Fields:          fields,
		AttachmentCount: attachmentCount,
		FailCount:       failCount,
	}, nil
}

// decodeFields parses the JSON-encoded {name, value} array. It first tries
// a strict decode; on failure it falls back to a defensive gjson pass that
// salvages whatever name/value pairs it can recognize rather than failing
// the whole entry outright on unexpected structure.
func decodeFields(raw string) ([]domain.Field, error) {
	var strict []domain.Field
	if err := json.Unmarshal([]byte(raw), &strict); err == nil {
		return strict, nil
	}

	parsed := gjson.Parse(raw)
	if !parsed.IsArray() {
		return nil, errors.New("fields is not a JSON array")
	}

	var salvaged []domain.Field
	for _, el := range parsed.Array() {
		name := el.Get("name")
		value := el.Get("value")
		if !name.Exists() {
			continue
		}
		salvaged = append(salvaged, domain.Field{Name: name.String(), Value: value.String()})
	}
	if len(salvaged) == 0 {
		return nil, errors.New("no recognizable name/value pairs")
	}
	return salvaged, nil
}

func parseNonNegativeInt(raw string) (int, error) {
	if raw == "" {
		return 0, errors.New("empty")
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d", n)
	}
	return n, nil
}

// SalvageAttachmentCount recovers attachment_count from a raw entry that
// failed structured decoding, so the Attachment Reaper still has a count to
// work from. It prefers a direct field lookup against the map go-redis
// already parses flat field arrays into, avoiding any dependence on a fixed
// field position; if that value does not parse, it serializes the same map
// to JSON and reads attachment_count through gjson's numeric conversion.
// Anything that still yields no non-negative number counts as 0.
func SalvageAttachmentCount(values map[string]string) int {
	if n, err := parseNonNegativeInt(values["attachment_count"]); err == nil {
		return n
	}
	blob, err := json.Marshal(values)
	if err != nil {
		return 0
	}
	result := gjson.GetBytes(blob, "attachment_count")
	if !result.Exists() {
		return 0
	}
	n := result.Int()
	if n < 0 {
		return 0
	}
	return int(n)
}

// EncodeRetryPayload builds the field map for a retry-stream append. It
// carries the original entry id in a payload field rather than reusing it
// as the new entry's id: XADD rejects an explicit id that is not greater
// than the stream's last id, so an auto-assigned id (chosen by the caller
// via SideStateStore.EnqueueRetry) is required for this to work at all.
func EncodeRetryPayload(msg *domain.Message, failCount int) (map[string]string, error) {
	fieldsJSON, err := json.Marshal(msg.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fields: %w", err)
	}
	return map[string]string{
		"hex":              msg.Hex,
		"form_id":          msg.FormID,
		"origin":           msg.Origin,
		"fields":           string(fieldsJSON),
		"attachment_count": strconv.Itoa(msg.AttachmentCount),
		"fail_count":       strconv.Itoa(failCount),
		"original_id":      msg.ID,
	}, nil
}

// EncodeFailedFields serializes a Message's fields to JSON for storage on a
// FailedEntryRecord, where they're kept as an opaque blob for later
// inspection rather than a structured field.
func EncodeFailedFields(fields []domain.Field) string {
	if fields == nil {
		fields = []domain.Field{}
	}
	blob, err := json.Marshal(fields)
	if err != nil {
		return "[]"
	}
	return string(blob)
}
