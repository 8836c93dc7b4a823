package media

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// storageReply is what the storage endpoint said about an upload
type storageReply struct {
	root     string
	code     string
	location string
}

// failed reports whether the reply denotes a rejected upload
func (r *storageReply) failed() bool {
	return r.root == "Error" || r.code != "" || r.location == ""
}

// parseStorageReply scans the XML body for the root element, an error
// <Code> and the <Location> of the stored file.
func parseStorageReply(body []byte) (*storageReply, error) {
	reply := &storageReply{}
	decoder := xml.NewDecoder(strings.NewReader(string(body)))

	var path []string
	var text strings.Builder
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return reply, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			if len(path) == 0 {
				reply.root = t.Name.Local
			}
			path = append(path, t.Name.Local)
			text.Reset()
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			switch t.Name.Local {
			case "Code":
				reply.code = strings.TrimSpace(text.String())
				if reply.code == "" {
					reply.code = "Code"
				}
			case "Location":
				if reply.location == "" {
					reply.location = strings.TrimSpace(text.String())
				}
			}
			if len(path) > 0 {
				path = path[:len(path)-1]
			}
			text.Reset()
		}
	}

	if reply.root == "" {
		return reply, errors.New("empty storage response")
	}
	return reply, nil
}
