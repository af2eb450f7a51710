package clients

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"GoAskAI/app/rag"
)

var _ Interface = &DiscordClient{}

const discordMessageLimit = 2000

type DiscordClient struct {
	Client
	session   *discordgo.Session
	channelID string
}

func NewDiscordClient(token, channelID string) (*DiscordClient, error) {
	if token == "" {
		return nil, errors.New("discord token is empty")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	dc := &DiscordClient{
		session:   session,
		channelID: channelID,
	}

	session.AddHandler(dc.onMessageCreate)
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	return dc, nil
}

func (c *DiscordClient) Subscribe(svc *rag.Service) {
	c.svc = svc
	if err := c.Open(); err != nil {
		log.Printf("🚨 Error opening Discord session: %v", err)
	}
}

func (c *DiscordClient) Open() error {
	if err := c.session.Open(); err != nil {
		return err
	}
	log.Println("🤖 Discord client started. Listening for questions...")
	return nil
}

func (c *DiscordClient) Close() error {
	return c.session.Close()
}

func (c *DiscordClient) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return
	}
	if c.channelID != "" && m.ChannelID != c.channelID {
		return
	}

	switch {
	case strings.HasPrefix(m.Content, "!ask"):
		question := strings.TrimSpace(strings.TrimPrefix(m.Content, "!ask"))
		if question == "" {
			c.reply(s, m.ChannelID, "Usage: !ask <question>")
			return
		}
		c.handleAsk(s, m.ChannelID, question)
	case strings.HasPrefix(m.Content, "!status"):
		c.reply(s, m.ChannelID, "```\n"+c.svc.CorpusTree()+"\n```")
	}
}

func (c *DiscordClient) handleAsk(s *discordgo.Session, channelID, question string) {
	answer, err := c.svc.Ask(context.Background(), question, rag.DefaultTopK)
	if err != nil {
		log.Printf("🚨 Error answering %q: %v", question, err)
		c.reply(s, channelID, "Something went wrong answering that, check the logs.")
		return
	}

	var b strings.Builder
	b.WriteString(answer.Answer)
	if len(answer.Sources) > 0 {
		b.WriteString("\n\nSources:")
		for _, hit := range answer.Sources {
			b.WriteString(fmt.Sprintf("\n• `%s` (%.4f)", hit.ID, hit.Score))
		}
	}
	c.reply(s, channelID, b.String())
}

func (c *DiscordClient) reply(s *discordgo.Session, channelID, content string) {
	if len(content) > discordMessageLimit {
		content = content[:discordMessageLimit-1] + "…"
	}
	if _, err := s.ChannelMessageSend(channelID, content); err != nil {
		log.Printf("⚠️ Error sending Discord message: %v", err)
	}
}
