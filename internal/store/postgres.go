package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hilo-games/hilo-backend/internal/model"
)

// guessRow gives guesses a surrogate key; the domain type itself is
// immutable and keyless.
type guessRow struct {
	ID uint `gorm:"primaryKey"`
	model.Guess
}

func (guessRow) TableName() string { return "guesses" }

// Postgres is the GORM-backed Store. Join-code uniqueness rides on the
// unique index over lobbies.code.
type Postgres struct {
	db *gorm.DB
}

// NewPostgres connects with the pgx-backed GORM driver and migrates the
// three tables.
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&model.Lobby{}, &model.Player{}, &guessRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) CreateLobby(ctx context.Context, lobby *model.Lobby) error {
	err := p.db.WithContext(ctx).Create(lobby).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrCodeTaken
	}
	return err
}

func (p *Postgres) GetLobby(ctx context.Context, id string) (*model.Lobby, error) {
	var lobby model.Lobby
	err := p.db.WithContext(ctx).First(&lobby, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lobby, nil
}

func (p *Postgres) GetLobbyByCode(ctx context.Context, code string) (*model.Lobby, error) {
	var lobby model.Lobby
	err := p.db.WithContext(ctx).First(&lobby, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lobby, nil
}

func (p *Postgres) UpdateLobby(ctx context.Context, lobby *model.Lobby) error {
	res := p.db.WithContext(ctx).Model(&model.Lobby{}).Where("id = ?", lobby.ID).
		Select("*").Omit("id").Updates(lobby)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteLobby(ctx context.Context, id string) error {
	res := p.db.WithContext(ctx).Delete(&model.Lobby{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return p.db.WithContext(ctx).Delete(&guessRow{}, "lobby_id = ?", id).Error
}

func (p *Postgres) CreatePlayer(ctx context.Context, player *model.Player) error {
	return p.db.WithContext(ctx).Create(player).Error
}

func (p *Postgres) GetPlayer(ctx context.Context, id string) (*model.Player, error) {
	var player model.Player
	err := p.db.WithContext(ctx).First(&player, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (p *Postgres) UpdatePlayer(ctx context.Context, player *model.Player) error {
	res := p.db.WithContext(ctx).Model(&model.Player{}).Where("id = ?", player.ID).
		Select("*").Omit("id").Updates(player)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) PlayersByLobby(ctx context.Context, lobbyID string) ([]model.Player, error) {
	var players []model.Player
	err := p.db.WithContext(ctx).
		Where("lobby_id = ?", lobbyID).
		Order("joined_at asc").Order("id asc").
		Find(&players).Error
	return players, err
}

func (p *Postgres) DeletePlayer(ctx context.Context, id string) error {
	res := p.db.WithContext(ctx).Delete(&model.Player{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) AddGuess(ctx context.Context, guess *model.Guess) error {
	return p.db.WithContext(ctx).Create(&guessRow{Guess: *guess}).Error
}

func (p *Postgres) GuessesByLobby(ctx context.Context, lobbyID string) ([]model.Guess, error) {
	var rows []guessRow
	err := p.db.WithContext(ctx).
		Where("lobby_id = ?", lobbyID).
		Order("timestamp asc").Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	guesses := make([]model.Guess, len(rows))
	for i, r := range rows {
		guesses[i] = r.Guess
	}
	return guesses, nil
}

func (p *Postgres) ClearGuesses(ctx context.Context, lobbyID string) error {
	return p.db.WithContext(ctx).Delete(&guessRow{}, "lobby_id = ?", lobbyID).Error
}
