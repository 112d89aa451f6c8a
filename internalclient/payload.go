package internalclient

import (
	"net/url"

	"github.com/gorilla/schema"
)

// FaceInstance mirrors ccnd's face_instance struct: the
// payload a newface/destroyface request carries, flattened to key=value
// pairs rather than ccnb-encoded.
type FaceInstance struct {
	Action   string `schema:"action"`
	FaceID   int    `schema:"faceid"`
	IPProto  int    `schema:"ipproto"`
	Host     string `schema:"host"`
	Port     int    `schema:"port"`
	McastTTL int    `schema:"mcastttl"`
	McastIfc string `schema:"mcastifc"`
}

// ForwardingEntry mirrors ccnd's forwarding_entry
// struct: the payload a prefixreg/selfreg/unreg/setstrategy/getstrategy/
// removestrategy request carries.
type ForwardingEntry struct {
	Action        string `schema:"action"`
	Name          string `schema:"name"`
	FaceID        int    `schema:"faceid"`
	Flags         int    `schema:"flags"`
	LifetimeSecs  int    `schema:"lifetime"`
	Strategy      string `schema:"strategy"`
	StrategyParam string `schema:"strategyparam"`
}

var schemaDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	d.ZeroEmpty(true)
	return d
}()

// decodeFaceInstance parses an Interest payload of "k=v&k=v..." pairs into
// a FaceInstance.
func decodeFaceInstance(payload []byte) (*FaceInstance, error) {
	vals, err := url.ParseQuery(string(payload))
	if err != nil {
		return nil, err
	}
	fi := &FaceInstance{}
	if err := schemaDecoder.Decode(fi, vals); err != nil {
		return nil, err
	}
	return fi, nil
}

// decodeForwardingEntry parses an Interest payload into a ForwardingEntry.
func decodeForwardingEntry(payload []byte) (*ForwardingEntry, error) {
	vals, err := url.ParseQuery(string(payload))
	if err != nil {
		return nil, err
	}
	fe := &ForwardingEntry{}
	if err := schemaDecoder.Decode(fe, vals); err != nil {
		return nil, err
	}
	return fe, nil
}

// encodeValues renders a flat key=value map back to the same "k=v&k=v"
// form a request payload used, for replies that echo back the resulting
// state (e.g. newface's assigned faceid, getstrategy's current class).
func encodeValues(vals url.Values) []byte {
	return []byte(vals.Encode())
}
