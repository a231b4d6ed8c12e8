package crawl

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UnmarshalJSON decodes a links object while keeping its key order. Each
// value is either a list of fragments or an object with an "anchors" list;
// anything else is ignored. The grouped layout of newer crawls, where the
// links sit under "rawlinks" and "autolinks", is flattened in that order.
func (l *Links) UnmarshalJSON(data []byte) error {
	*l = nil
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("reading links: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("reading link url: %w", err)
		}
		url, _ := keyTok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("reading link %s: %w", url, err)
		}
		if url == "rawlinks" || url == "autolinks" {
			var group Links
			if err := group.UnmarshalJSON(raw); err != nil {
				return err
			}
			*l = append(*l, group...)
			continue
		}
		*l = append(*l, Link{URL: url, Fragments: decodeFragments(raw)})
	}
	return nil
}

// MarshalJSON writes links back as an object of fragment lists.
func (l Links) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, link := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(link.URL)
		if err != nil {
			return nil, err
		}
		frags := link.Fragments
		if frags == nil {
			frags = []string{}
		}
		val, err := json.Marshal(frags)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func decodeFragments(raw json.RawMessage) []string {
	var frags []string
	if err := json.Unmarshal(raw, &frags); err == nil {
		return frags
	}
	var obj struct {
		Anchors []string `json:"anchors"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Anchors
	}
	return nil
}
