package registry

import "context"

type frameKey struct{}

// frame marks one construction in progress on the calling chain.
type frame struct {
	owner  any
	key    any
	parent *frame
}

// withFrame returns a context recording that owner is constructing key.
func withFrame(ctx context.Context, owner, key any) context.Context {
	parent, _ := ctx.Value(frameKey{}).(*frame)
	return context.WithValue(ctx, frameKey{}, &frame{owner: owner, key: key, parent: parent})
}

// constructing reports whether ctx descends from owner's construction of key.
func constructing(ctx context.Context, owner, key any) bool {
	f, _ := ctx.Value(frameKey{}).(*frame)
	for ; f != nil; f = f.parent {
		if f.owner == owner && f.key == key {
			return true
		}
	}
	return false
}

// Constructing reports whether ctx was handed to a constructor, directly or
// through derived contexts.
func Constructing(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	f, _ := ctx.Value(frameKey{}).(*frame)
	return f != nil
}
