package main

import (
	"context"
	"errors"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/meikuraledutech/quest"
	"github.com/meikuraledutech/quest/genai"
	"github.com/meikuraledutech/quest/postgres"
)

type config struct {
	Addr        string `env:"ADDR" envDefault:":3000"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	OpenAIKey   string `env:"OPENAI_API_KEY"`
	OpenAIModel string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`

	MinNodes      int `env:"QUEST_MIN_NODES" envDefault:"4"`
	MaxNodes      int `env:"QUEST_MAX_NODES" envDefault:"50"`
	MinChoices    int `env:"QUEST_MIN_CHOICES" envDefault:"1"`
	MaxChoices    int `env:"QUEST_MAX_CHOICES" envDefault:"4"`
	MaxDepth      int `env:"QUEST_MAX_DEPTH" envDefault:"20"`
	MaxPathLength int `env:"QUEST_MAX_PATH_LENGTH" envDefault:"100"`
}

type createAdventureRequest struct {
	Concept string         `json:"concept" validate:"required_without=Outline"`
	Outline *quest.Outline `json:"outline" validate:"required_without=Concept"`
}

type chooseRequest struct {
	ChoiceID string `json:"choice_id" validate:"required,uuid4"`
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		logger.Fatal("parse config", zap.Error(err))
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connect", zap.Error(err))
	}
	defer pool.Close()

	var store quest.Store = postgres.New(pool)

	limits := quest.Limits{
		MinNodes:      cfg.MinNodes,
		MaxNodes:      cfg.MaxNodes,
		MinChoices:    cfg.MinChoices,
		MaxChoices:    cfg.MaxChoices,
		MaxDepth:      cfg.MaxDepth,
		MaxPathLength: cfg.MaxPathLength,
	}

	var gen quest.Generator
	if cfg.OpenAIKey != "" {
		gen = genai.New(genai.Config{APIKey: cfg.OpenAIKey, Model: cfg.OpenAIModel})
	} else {
		logger.Warn("OPENAI_API_KEY not set; only outlines with pre-written content can be built")
	}

	builder := quest.NewBuilder(store, gen, limits, logger)
	engine := quest.NewEngine(store, limits)
	validate := validator.New()

	app := fiber.New()

	// ── Schema ────────────────────────────────────────────────────────
	app.Post("/schema", func(c fiber.Ctx) error {
		if err := store.CreateSchema(c.Context()); err != nil {
			return respondErr(c, logger, err)
		}
		return c.JSON(fiber.Map{"message": "schema created"})
	})

	app.Delete("/schema", func(c fiber.Ctx) error {
		if err := store.DropSchema(c.Context()); err != nil {
			return respondErr(c, logger, err)
		}
		return c.JSON(fiber.Map{"message": "schema dropped"})
	})

	// ── Adventures ────────────────────────────────────────────────────
	app.Post("/adventures", func(c fiber.Ctx) error {
		var req createAdventureRequest
		if err := c.Bind().JSON(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		if err := validate.Struct(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "concept or outline is required"})
		}

		var adv *quest.Adventure
		var err error
		if req.Outline != nil {
			adv, err = builder.Build(c.Context(), req.Outline)
		} else {
			adv, err = builder.BuildFromConcept(c.Context(), req.Concept)
		}
		if err != nil {
			return respondErr(c, logger, err)
		}
		return c.Status(201).JSON(fiber.Map{"adventure_id": adv.ID})
	})

	app.Get("/adventures/:id", func(c fiber.Ctx) error {
		adv, err := store.GetAdventure(c.Context(), c.Params("id"))
		if err != nil {
			return respondErr(c, logger, err)
		}
		if adv == nil || !adv.Published {
			return c.Status(404).JSON(fiber.Map{"kind": "not_found", "error": "adventure not found"})
		}
		return c.JSON(adv)
	})

	app.Get("/adventures/:id/stats", func(c fiber.Ctx) error {
		stats, err := store.ChoiceStats(c.Context(), c.Params("id"))
		if err != nil {
			return respondErr(c, logger, err)
		}
		return c.JSON(fiber.Map{"choices": stats})
	})

	// ── Journeys ──────────────────────────────────────────────────────
	app.Post("/adventures/:id/start", func(c fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			return c.Status(401).JSON(fiber.Map{"error": "X-User-ID header is required"})
		}
		res, err := engine.Start(c.Context(), userID, c.Params("id"))
		if err != nil {
			return respondErr(c, logger, err)
		}
		return c.JSON(stepResponse(res))
	})

	app.Post("/adventures/:id/restart", func(c fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			return c.Status(401).JSON(fiber.Map{"error": "X-User-ID header is required"})
		}
		res, err := engine.Restart(c.Context(), userID, c.Params("id"))
		if err != nil {
			return respondErr(c, logger, err)
		}
		return c.Status(201).JSON(stepResponse(res))
	})

	app.Get("/journeys/:id", func(c fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			return c.Status(401).JSON(fiber.Map{"error": "X-User-ID header is required"})
		}
		res, err := engine.Resume(c.Context(), c.Params("id"), userID)
		if err != nil {
			return respondErr(c, logger, err)
		}
		return c.JSON(stepResponse(res))
	})

	app.Post("/journeys/:id/choose", func(c fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			return c.Status(401).JSON(fiber.Map{"error": "X-User-ID header is required"})
		}
		var req chooseRequest
		if err := c.Bind().JSON(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		if err := validate.Struct(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "choice_id must be a uuid"})
		}
		res, err := engine.Choose(c.Context(), c.Params("id"), req.ChoiceID, userID)
		if err != nil {
			return respondErr(c, logger, err)
		}
		return c.JSON(stepResponse(res))
	})

	logger.Info("listening", zap.String("addr", cfg.Addr))
	if err := app.Listen(cfg.Addr); err != nil {
		logger.Fatal("listen", zap.Error(err))
	}
}

func stepResponse(res *quest.StepResult) fiber.Map {
	return fiber.Map{
		"journey_id":   res.Journey.ID,
		"current_node": res.Node,
		"choices":      res.Choices,
		"path":         res.Journey.Path,
		"is_completed": res.Journey.IsCompleted,
	}
}

// respondErr maps the error taxonomy onto HTTP statuses. Reference and
// internal failures are logged with full context and never shown verbatim.
func respondErr(c fiber.Ctx, logger *zap.Logger, err error) error {
	var qe *quest.Error
	if !errors.As(err, &qe) {
		logger.Error("request failed", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"kind": "internal", "error": "internal error"})
	}

	switch qe.Kind {
	case quest.KindValidation:
		if len(qe.Violations) > 0 {
			return c.Status(422).JSON(fiber.Map{"kind": qe.Kind, "error": qe.Message, "violations": qe.Violations})
		}
		return c.Status(400).JSON(fiber.Map{"kind": qe.Kind, "error": qe.Message})
	case quest.KindNotFound:
		return c.Status(404).JSON(fiber.Map{"kind": qe.Kind, "error": qe.Message})
	case quest.KindConflict:
		return c.Status(409).JSON(fiber.Map{"kind": qe.Kind, "error": qe.Message})
	case quest.KindAuthorization:
		return c.Status(403).JSON(fiber.Map{"kind": qe.Kind, "error": qe.Message})
	default:
		logger.Error("request failed", zap.String("kind", string(qe.Kind)), zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"kind": "internal", "error": "internal error"})
	}
}
