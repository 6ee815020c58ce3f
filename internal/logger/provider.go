package logger

import (
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
)

var (
	providerMu   sync.Mutex
	providerLog  *log.Logger
	providerDump bool
)

// SetProviderWriter routes raw market-data payload dumps to w; nil disables them.
func SetProviderWriter(w io.Writer) {
	providerMu.Lock()
	defer providerMu.Unlock()
	if w == nil {
		providerLog = nil
		return
	}
	providerLog = log.New(w, "", log.LstdFlags)
}

func EnableProviderPayloadDump(enabled bool) {
	providerMu.Lock()
	providerDump = enabled
	providerMu.Unlock()
}

// LogProviderPayload writes one provider response body, framed by the
// provider name, endpoint and symbol. Payloads are only written when dumping
// is enabled and a writer is set.
func LogProviderPayload(provider, endpoint, symbol string, status int, payload []byte) {
	providerMu.Lock()
	logger := providerLog
	enabled := providerDump
	providerMu.Unlock()
	if logger == nil || !enabled {
		return
	}
	body := strings.TrimSpace(string(payload))
	if body == "" {
		body = "<empty>"
	}
	var b strings.Builder
	b.WriteString("[PROVIDER]")
	for _, tag := range []string{provider, endpoint, strings.ToUpper(symbol)} {
		if tag == "" {
			continue
		}
		b.WriteString("[")
		b.WriteString(tag)
		b.WriteString("]")
	}
	b.WriteString(" status=")
	b.WriteString(strconv.Itoa(status))
	b.WriteString("\n")
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("=====\n")
	logger.Print(b.String())
}
