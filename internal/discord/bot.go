package discord

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/xuanbachtran02/MusicCat/internal/command"
	_ "github.com/xuanbachtran02/MusicCat/internal/command/music"
	"github.com/xuanbachtran02/MusicCat/internal/config"
	"github.com/xuanbachtran02/MusicCat/internal/lavalink"
	"github.com/xuanbachtran02/MusicCat/internal/music/autoplay"
	"github.com/xuanbachtran02/MusicCat/internal/music/player"
	"github.com/xuanbachtran02/MusicCat/internal/music/reactor"
	"github.com/xuanbachtran02/MusicCat/internal/music/search"
	"github.com/xuanbachtran02/MusicCat/internal/music/session"
	"github.com/xuanbachtran02/MusicCat/internal/storage"
)

// Bot is the Discord front of the player: it owns the gateway session and
// routes interactions and voice events into the playback core.
type Bot struct {
	dg      *discordgo.Session
	cfg     *config.Config
	storage *storage.Storage

	node    *lavalink.Node
	players *player.Service
	react   *reactor.Reactor
}

// StartBot runs the bot until ctx is cancelled.
func StartBot(ctx context.Context, cfg *config.Config, storage *storage.Storage) error {
	b := &Bot{cfg: cfg, storage: storage}
	if err := b.run(ctx, cfg.DiscordToken); err != nil {
		return fmt.Errorf("bot run error: %w", err)
	}
	return nil
}

func (b *Bot) run(ctx context.Context, token string) error {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	b.dg = dg

	b.configureIntents()
	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onGuildCreate)
	dg.AddHandler(b.onInteractionCreate)
	dg.AddHandler(b.onVoiceStateUpdate)
	dg.AddHandler(b.onVoiceServerUpdate)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	botUser, err := dg.User("@me")
	if err != nil {
		return fmt.Errorf("failed to resolve bot user: %w", err)
	}

	b.wirePlayback(botUser.ID)

	nodeErr := make(chan error, 1)
	go func() { nodeErr <- b.node.Run(ctx) }()

	select {
	case <-ctx.Done():
		log.Println("[INFO] Shutdown signal received. Cleaning up...")
		b.leaveAllVoice()
		return nil
	case err := <-nodeErr:
		return fmt.Errorf("audio node connection lost: %w", err)
	}
}

// wirePlayback assembles the playback core once the bot's identity is known.
func (b *Bot) wirePlayback(botUserID string) {
	node := lavalink.New(&lavalink.Config{
		Addr:     b.cfg.LavalinkAddr(),
		Password: b.cfg.LavalinkPass,
		UserID:   botUserID,
		Gateway:  b,
	})
	b.node = node

	searchClient := search.New(&search.Config{
		Loader:   node,
		PageSize: b.cfg.AutoplayPageSize,
	})

	registry := session.NewRegistry()
	b.players = player.New(&player.Config{
		Registry: registry,
		Node:     node,
		Search:   searchClient,
		Voice:    b,
	})

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	b.react = reactor.New(&reactor.Config{
		Registry: registry,
		Node:     node,
		Commands: b.players,
		Autoplay: autoplay.New(searchClient, rng),
		Notify:   b,
		Presence: b,
		Metrics:  b.storage,
	})
	node.OnEvent(b.react.HandleAudioEvent)
}

func (b *Bot) configureIntents() {
	b.dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Printf("[INFO] Logged in as %s, serving %d guild(s)", r.User.Username, len(r.Guilds))
	b.ClearListening()
}

func (b *Bot) onGuildCreate(_ *discordgo.Session, g *discordgo.GuildCreate) {
	if err := b.registerCommands(g.ID); err != nil {
		log.Printf("[ERR] Failed to register commands for guild %s: %v", g.ID, err)
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	cmd, ok := command.Get(name)
	if !ok {
		return
	}

	err := cmd.Run(&command.SlashContext{
		Session: s,
		Event:   i,
		Players: b.players,
		Storage: b.storage,
	})
	if err != nil {
		log.Printf("[ERR] Command /%s failed: %v", name, err)
	}
}

// leaveAllVoice disconnects every active session on shutdown so guilds are
// not left with a ghost player.
func (b *Bot) leaveAllVoice() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, g := range b.dg.State.Guilds {
		if err := b.players.Leave(ctx, g.ID); err != nil {
			log.Printf("[WARN] Failed to leave guild %s on shutdown: %v", g.ID, err)
		}
	}
}
