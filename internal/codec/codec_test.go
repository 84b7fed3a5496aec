package codec

import (
	"testing"

	"github.com/email4-dev/mailer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEntry() map[string]string {
	return map[string]string{
		"hex":              "a1",
		"form_id":          "F",
		"origin":           "web",
		"fields":           `[{"Name":"email","Value":"x@y"}]`,
		"attachment_count": "0",
	}
}

func TestDecode_Success(t *testing.T) {
	msg, err := Decode("1-0", validEntry())
	require.NoError(t, err)
	assert.Equal(t, "1-0", msg.ID)
	assert.Equal(t, "a1", msg.Hex)
	assert.Equal(t, "F", msg.FormID)
	assert.Equal(t, "web", msg.Origin)
	assert.Equal(t, 0, msg.AttachmentCount)
	assert.Equal(t, 0, msg.FailCount)
	require.Len(t, msg.Fields, 1)
	assert.Equal(t, "email", msg.Fields[0].Name)
	assert.Equal(t, "x@y", msg.Fields[0].Value)
}

func TestDecode_FailCountPresent(t *testing.T) {
	entry := validEntry()
	entry["fail_count"] = "3"
	msg, err := Decode("2-0", entry)
	require.NoError(t, err)
	assert.Equal(t, 3, msg.FailCount)
}

func TestDecode_MissingHex(t *testing.T) {
	entry := validEntry()
	delete(entry, "hex")
	_, err := Decode("1-0", entry)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecode_MissingFormID(t *testing.T) {
	entry := validEntry()
	delete(entry, "form_id")
	_, err := Decode("1-0", entry)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecode_MissingOrigin(t *testing.T) {
	entry := validEntry()
	delete(entry, "origin")
	_, err := Decode("1-0", entry)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecode_MissingFields(t *testing.T) {
	entry := validEntry()
	delete(entry, "fields")
	_, err := Decode("1-0", entry)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecode_NonNumericAttachmentCount(t *testing.T) {
	entry := validEntry()
	entry["attachment_count"] = "not-a-number"
	_, err := Decode("1-0", entry)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecode_NegativeAttachmentCount(t *testing.T) {
	entry := validEntry()
	entry["attachment_count"] = "-1"
	_, err := Decode("1-0", entry)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecode_MalformedFieldsJSON(t *testing.T) {
	entry := validEntry()
	entry["fields"] = "{not json"
	_, err := Decode("1-0", entry)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecode_FieldsSalvagedFromLooseJSON(t *testing.T) {
	entry := validEntry()
	// Not a []domain.Field-shaped array (a stray non-object element makes the
	// strict decode fail) but still a JSON array whose objects carry
	// name/value.
	entry["fields"] = `[{"name":"email","value":"x@y","extra":true},"stray"]`
	msg, err := Decode("1-0", entry)
	require.NoError(t, err)
	require.Len(t, msg.Fields, 1)
	assert.Equal(t, "email", msg.Fields[0].Name)
	assert.Equal(t, "x@y", msg.Fields[0].Value)
}

func TestSalvageAttachmentCount_DirectLookup(t *testing.T) {
	entry := validEntry()
	entry["attachment_count"] = "2"
	assert.Equal(t, 2, SalvageAttachmentCount(entry))
}

func TestSalvageAttachmentCount_FallsBackToZero(t *testing.T) {
	entry := validEntry()
	entry["attachment_count"] = "garbage"
	assert.Equal(t, 0, SalvageAttachmentCount(entry))
}

func TestEncodeRetryPayload_CarriesOriginalID(t *testing.T) {
	msg := &domain.Message{
		ID:              "5-0",
		Hex:             "a1",
		FormID:          "F",
		Origin:          "web",
		Fields:          []domain.Field{{Name: "email", Value: "x@y"}},
		AttachmentCount: 1,
	}
	payload, err := EncodeRetryPayload(msg, 2)
	require.NoError(t, err)
	assert.Equal(t, "a1", payload["hex"])
	assert.Equal(t, "F", payload["form_id"])
	assert.Equal(t, "web", payload["origin"])
	assert.Equal(t, "1", payload["attachment_count"])
	assert.Equal(t, "2", payload["fail_count"])
	assert.Equal(t, "5-0", payload["original_id"])
	assert.Contains(t, payload["fields"], "email")
}

func TestEncodeFailedFields(t *testing.T) {
	fields := []domain.Field{{Name: "email", Value: "x@y"}}
	out := EncodeFailedFields(fields)
	assert.Contains(t, out, "email")
	assert.Contains(t, out, "x@y")
}

func TestEncodeFailedFields_Empty(t *testing.T) {
	assert.Equal(t, "[]", EncodeFailedFields(nil))
}
