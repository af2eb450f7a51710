package clients

import (
	"GoAskAI/app/rag"
)

type Interface interface {
	Subscribe(*rag.Service)
}

type Client struct {
	svc *rag.Service
}
