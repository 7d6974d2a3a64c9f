package asset

import "errors"

// Chain asks each source in turn, moving on only when a source reports
// ErrNotFound. Any other error ends the request.
type Chain []Source

// RequestImage tries the sources in order.
func (c Chain) RequestImage(id TextureID, done Done) {
	c.request(0, id, done)
}

func (c Chain) request(i int, id TextureID, done Done) {
	if i >= len(c) {
		done(nil, ErrNotFound)
		return
	}
	c[i].RequestImage(id, func(data []byte, err error) {
		if errors.Is(err, ErrNotFound) {
			c.request(i+1, id, done)
			return
		}
		done(data, err)
	})
}
