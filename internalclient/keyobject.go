package internalclient

import "github.com/ccnxgo/ccnd/wire"

// srvKeyName is the well-known namespace every ccnd instance publishes
// its own public key under, independent of its per-instance ccnd_id
// prefix, so a peer that doesn't yet know this daemon's ccnd_id can still
// fetch its key (the self key object at %C1.M.S.localhost/%C1.M.SRV/ccnd).
var srvKeyName = wire.NameFromStr("ccnx:/%C1.M.S.localhost/%C1.M.SRV/ccnd")

// replyKeyObject answers a request under srvKeyName with a KEY-typed
// ContentObject whose payload is the daemon's raw Ed25519 public key,
// eligible for the Content Store's PRECIOUS treatment once cached.
func (c *Client) replyKeyObject(in *wire.Interest) *wire.ContentObject {
	return c.reply(srvKeyName, append([]byte(nil), c.ctx.PublicKey()...), wire.ContentTypeKey)
}
