package handler

import (
	"net/http"

	"github.com/Mihklz/casetrail/internal/catalog"
	"github.com/Mihklz/casetrail/internal/registry"
)

// ChannelInfo описание канала в ответе GET /channels.
type ChannelInfo struct {
	Category    string `json:"category"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Audited     bool   `json:"audited"`
}

// NewChannelsHandler возвращает список зарегистрированных каналов в порядке регистрации.
func NewChannelsHandler(reg *registry.Registry, key string) http.HandlerFunc {
	audited := make(map[string]bool)
	for _, e := range catalog.Audited() {
		audited[e.Handle.Name()] = true
	}

	return func(w http.ResponseWriter, r *http.Request) {
		channels := reg.Channels()
		out := make([]ChannelInfo, 0, len(channels))
		for _, ch := range channels {
			out = append(out, ChannelInfo{
				Category:    ch.Category,
				Name:        ch.Name,
				Description: ch.Description,
				Audited:     audited[ch.Name],
			})
		}
		writeJSON(w, out, key, http.StatusOK)
	}
}
