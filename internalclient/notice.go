package internalclient

import (
	"strconv"
	"strings"
	"sync"

	"github.com/ccnxgo/ccnd/wire"
)

// noticeStream is the notice.txt namespace: an append-only log of
// face-birth/death and adjacency events, served as
// successive numbered segments the way ccnd's own notice.txt handler
// answers repeated reads with whatever has accumulated since the last
// sequence number a requester already has.
type noticeStream struct {
	mu    sync.Mutex
	lines []string
}

func newNoticeStream() *noticeStream {
	return &noticeStream{}
}

func (n *noticeStream) append(line string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lines = append(n.lines, line)
	const maxLines = 500
	if len(n.lines) > maxLines {
		n.lines = n.lines[len(n.lines)-maxLines:]
	}
}

// since returns every line recorded from index from onward, and the
// stream's current length (the next "since" value a follow-up request
// should ask for).
func (n *noticeStream) since(from int) (lines []string, total int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if from < 0 || from > len(n.lines) {
		from = 0
	}
	return append([]string(nil), n.lines[from:]...), len(n.lines)
}

// handleNotice answers ccnx:/ccnx/<ccnd_id>/notice.txt[/<seq>], returning
// every line recorded since seq (0 if the request carries no sequence
// component), with the new high-water mark as the reply's name suffix so
// a polling client can ask for only what's new next time.
func (c *Client) handleNotice(in *wire.Interest) *wire.ContentObject {
	verbDepth := len(c.prefix) + 1
	from := 0
	if len(in.Name) > verbDepth {
		if v, err := strconv.Atoi(string(in.Name[verbDepth].Val)); err == nil {
			from = v
		}
	}
	lines, total := c.notice.since(from)
	body := strings.Join(lines, "\n")
	name := c.prefix.Append(wire.NewComponent("notice.txt"), wire.NewComponent(strconv.Itoa(total)))
	return c.reply(name, []byte(body), wire.ContentTypeData)
}
