package clients

import (
	"fmt"
	"log"
	"sync"

	"GoAskAI/app/configs"
	"GoAskAI/app/rag"
)

type Registry struct {
	mu      sync.RWMutex
	clients []Interface
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make([]Interface, 0),
	}
}

func (r *Registry) Register(client Interface, svc *rag.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clients = append(r.clients, client)
	client.Subscribe(svc)

	return nil
}

func (r *Registry) GetAll() []Interface {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Interface, len(r.clients))
	copy(result, r.clients)
	return result
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, client := range r.clients {
		if closer, ok := client.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				log.Printf("⚠️ Error closing client: %v\n", err)
			}
		}
	}
	r.clients = make([]Interface, 0)
}

// CreateClient builds a connector from its config section. Only Discord is
// wired today; more connector types plug in here.
func CreateClient(cfg configs.DiscordConfig) (Interface, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("discord client is disabled")
	}
	return NewDiscordClient(cfg.Token, cfg.ChannelID)
}
