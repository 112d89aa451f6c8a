package daemon

import (
	"crypto/ed25519"
	"fmt"

	"github.com/ccnxgo/ccnd/face"
	"github.com/ccnxgo/ccnd/internalclient"
	"github.com/ccnxgo/ccnd/sched"
	"github.com/ccnxgo/ccnd/signing"
	"github.com/ccnxgo/ccnd/strategy"
	"github.com/ccnxgo/ccnd/table"
	"github.com/ccnxgo/ccnd/wire"
)

var _ internalclient.Ctx = (*internalClientCtx)(nil)

// internalClientCtx implements internalclient.Ctx against a running
// Daemon, the same narrow-adapter pattern strategyCtx uses for the
// strategy package (daemon/ctx.go): it owns nothing itself, it only
// forwards to the Daemon and its Keystore.
type internalClientCtx struct {
	d  *Daemon
	ks *signing.Keystore
}

func (c *internalClientCtx) Now() sched.Tick { return c.d.Sched.Now() }

func (c *internalClientCtx) CcndID() [32]byte          { return c.ks.CcndID() }
func (c *internalClientCtx) PublicKey() ed25519.PublicKey { return c.ks.PublicKey() }

func (c *internalClientCtx) Sign(body []byte) []byte { return c.ks.Sign(body) }

func (c *internalClientCtx) Verify(body, sig []byte, pub ed25519.PublicKey) bool {
	return c.ks.Verify(body, sig, pub)
}

func (c *internalClientCtx) NewFaceFromSpec(kind, host string, port int) (face.ID, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	var t face.Transport
	var err error
	switch kind {
	case "tcp":
		t, err = face.DialTCP(addr, c.d.Config.Faces.Mtu)
	case "udp":
		t, err = face.DialUDP(addr, c.d.Config.Faces.Mtu)
	default:
		return 0, fmt.Errorf("daemon: unsupported face kind %q", kind)
	}
	if err != nil {
		return 0, err
	}
	f := c.d.registerFace(t, face.FlagUndecided)
	return f.ID(), nil
}

func (c *internalClientCtx) DestroyFace(id face.ID) bool {
	f, ok := c.d.Faces.Find(id)
	if !ok {
		return false
	}
	f.Transport().Close()
	return true
}

func (c *internalClientCtx) FindFace(id face.ID) (*face.Face, bool) {
	return c.d.Faces.Find(id)
}

func (c *internalClientCtx) FIBIntern(name wire.Name) *table.NameprefixEntry {
	return c.d.FIB.Intern(name)
}

func (c *internalClientCtx) FIBRegister(npe *table.NameprefixEntry, f face.ID, flags table.ForwardFlags, expiryTicks int64) *table.Forwarding {
	return c.d.FIB.Register(npe.Name(), f, flags, expiryTicks)
}

func (c *internalClientCtx) FIBUnregister(name wire.Name, f face.ID) bool {
	return c.d.FIB.Unregister(name, f)
}

func (c *internalClientCtx) SetStrategy(npe *table.NameprefixEntry, class, params string) bool {
	return strategy.SetStrategy(c.d.stratCtx, npe, class, params)
}

func (c *internalClientCtx) RemoveStrategy(npe *table.NameprefixEntry) {
	strategy.RemoveStrategy(c.d.stratCtx, npe)
}

func (c *internalClientCtx) CurrentClass(npe *table.NameprefixEntry) (string, string, bool) {
	return strategy.CurrentClass(npe)
}
