package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// TimestampLayout is the DD-MM-YYYY HH:MM:SS layout used for created_audio.
const TimestampLayout = "02-01-2006 15:04:05"

var (
	// ErrInvalidRecord is returned when a record violates the record contract.
	ErrInvalidRecord = errors.New("invalid cache record")

	// ErrRecordExists is returned by PutIfAbsent when the identifier is taken.
	ErrRecordExists = errors.New("cache record already exists")
)

// Record is the durable mapping from a phrase to its synthesized audio.
// Records are written once and never updated.
type Record struct {
	ID        string
	Phrase    string
	AudioURL  string
	CreatedAt time.Time
}

// NewRecord builds a record stamped at now, truncated to whole seconds in UTC.
func NewRecord(id, phrase, audioURL string, now time.Time) Record {
	return Record{
		ID:        id,
		Phrase:    phrase,
		AudioURL:  audioURL,
		CreatedAt: now.UTC().Truncate(time.Second),
	}
}

// Validate checks the record contract.
func (r Record) Validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("%w: empty unique_id", ErrInvalidRecord)
	case !ValidPhraseID(r.ID):
		return fmt.Errorf("%w: malformed unique_id %q", ErrInvalidRecord, r.ID)
	case r.Phrase == "":
		return fmt.Errorf("%w: empty received_phrase", ErrInvalidRecord)
	case r.AudioURL == "":
		return fmt.Errorf("%w: empty url_to_audio", ErrInvalidRecord)
	case r.CreatedAt.IsZero():
		return fmt.Errorf("%w: missing created_audio", ErrInvalidRecord)
	}
	return nil
}

// CreatedAtString formats CreatedAt with TimestampLayout.
func (r Record) CreatedAtString() string {
	return r.CreatedAt.UTC().Format(TimestampLayout)
}

// recordItem is the persisted shape. Attribute names are the table schema
// and must not change.
type recordItem struct {
	UniqueID       string `json:"unique_id" dynamodbav:"unique_id"`
	ReceivedPhrase string `json:"received_phrase" dynamodbav:"received_phrase"`
	URLToAudio     string `json:"url_to_audio" dynamodbav:"url_to_audio"`
	CreatedAudio   string `json:"created_audio" dynamodbav:"created_audio"`
}

func toItem(r Record) recordItem {
	return recordItem{
		UniqueID:       r.ID,
		ReceivedPhrase: r.Phrase,
		URLToAudio:     r.AudioURL,
		CreatedAudio:   r.CreatedAtString(),
	}
}

func fromItem(it recordItem) (Record, error) {
	createdAt, err := time.ParseInLocation(TimestampLayout, it.CreatedAudio, time.UTC)
	if err != nil {
		return Record{}, fmt.Errorf("%w: created_audio %q: %v", ErrInvalidRecord, it.CreatedAudio, err)
	}
	r := Record{
		ID:        it.UniqueID,
		Phrase:    it.ReceivedPhrase,
		AudioURL:  it.URLToAudio,
		CreatedAt: createdAt,
	}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}

// MarshalJSON encodes the record in its persisted shape.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(toItem(r))
}

// UnmarshalJSON decodes and validates a persisted record.
func (r *Record) UnmarshalJSON(data []byte) error {
	var it recordItem
	if err := json.Unmarshal(data, &it); err != nil {
		return err
	}
	rec, err := fromItem(it)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}
