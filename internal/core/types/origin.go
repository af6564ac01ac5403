package types

// Origin is the calling identity as resolved by the surrounding
// authentication layer. The core only distinguishes the privileged
// protocol controller ("root") from an ordinary signer.
type Origin struct {
	root   bool
	signer AccountID
}

// RootOrigin returns the privileged protocol-controller origin.
func RootOrigin() Origin {
	return Origin{root: true}
}

// SignedOrigin returns an origin signed by the given account.
func SignedOrigin(who AccountID) Origin {
	return Origin{signer: who}
}

// IsRoot reports whether the origin carries root privilege.
func (o Origin) IsRoot() bool { return o.root }

// Signer returns the signing account and whether one is present.
func (o Origin) Signer() (AccountID, bool) {
	if o.root || o.signer == "" {
		return "", false
	}
	return o.signer, true
}

// EnsureRoot fails with ErrUnauthorized unless the origin is root.
func (o Origin) EnsureRoot() error {
	if !o.root {
		return ErrUnauthorized
	}
	return nil
}

// EnsureSigned fails with ErrUnauthorized unless the origin is signed,
// returning the signer.
func (o Origin) EnsureSigned() (AccountID, error) {
	who, ok := o.Signer()
	if !ok {
		return "", ErrUnauthorized
	}
	return who, nil
}
