package committee

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const jsonCommitteePath = "committee.json"

// JSONCommittee is used to provide committee persistence on disk in the form
// of a JSON file. It is the file format of the external membership feed: an
// authority writes the validator list at genesis and at each rotation, and
// nodes read it from their datadir.
type JSONCommittee struct {
	l    sync.Mutex
	path string
}

// NewJSONCommittee creates a new JSONCommittee with reference to a base
// directory where the JSON file resides.
func NewJSONCommittee(base string) *JSONCommittee {
	return &JSONCommittee{
		path: filepath.Join(base, jsonCommitteePath),
	}
}

// Committee parses the underlying JSON file and returns the corresponding
// Committee.
func (j *JSONCommittee) Committee() (*Committee, error) {
	members, err := j.Members()
	if err != nil {
		return nil, err
	}

	return NewCommittee(members), nil
}

// Members parses the underlying JSON file and returns the member list.
func (j *JSONCommittee) Members() ([]*Member, error) {
	j.l.Lock()
	defer j.l.Unlock()

	buf, err := os.ReadFile(j.path)
	if err != nil {
		return nil, err
	}

	var members []*Member
	dec := json.NewDecoder(bytes.NewReader(buf))
	if err := dec.Decode(&members); err != nil {
		return nil, err
	}

	cleanseMembers(members)

	return members, nil
}

// cleanseMembers standardises the public key strings to match the format
// derived from a private key.
func cleanseMembers(members []*Member) {
	for _, m := range members {
		m.PubKeyHex = "0X" + strings.TrimPrefix(strings.ToUpper(m.PubKeyHex), "0X")
	}
}

// Write persists a member list to the JSON file.
func (j *JSONCommittee) Write(members []*Member) error {
	j.l.Lock()
	defer j.l.Unlock()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(members); err != nil {
		return err
	}

	return os.WriteFile(j.path, buf.Bytes(), 0644)
}
