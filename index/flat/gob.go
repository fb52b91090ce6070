package flat

import (
	"bytes"
	"encoding/gob"

	"github.com/msgvault/msgvault/distance"
)

// GobEncode serializes the index options and vector matrix.
func (f *Flat) GobEncode() ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)

	if err := encoder.Encode(f.opts); err != nil {
		return nil, err
	}

	if err := encoder.Encode(f.vectors); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// GobDecode restores the index from its serialized form, including the
// distance function derived from the persisted metric.
func (f *Flat) GobDecode(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	decoder := gob.NewDecoder(bytes.NewBuffer(data))

	if err := decoder.Decode(&f.opts); err != nil {
		return err
	}

	if err := decoder.Decode(&f.vectors); err != nil {
		return err
	}

	distanceFunc, err := distance.Provider(f.opts.Metric)
	if err != nil {
		return err
	}
	f.distanceFunc = distanceFunc

	return nil
}
