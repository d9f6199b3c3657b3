package gateway

import "fmt"

// Target identifies the gateway endpoint a request is sent to.
type Target struct {
	Hostname string
	Port     int
	Resource string
}

// URL builds the request URL.
//
// Exactly one leading "/" is stripped from the resource before joining, so
// "/items" and "items" address the same URL. Only the first character is
// checked; anything beyond it is kept verbatim. Devices in the field depend
// on this truncation rule, so it is intentionally not URL-join semantics.
func (t Target) URL() string {
	resource := t.Resource
	if len(resource) > 0 && resource[0] == '/' {
		resource = resource[1:]
	}
	return fmt.Sprintf("https://%s:%d/%s", t.Hostname, t.Port, resource)
}
