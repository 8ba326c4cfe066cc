package models

type GameType uint8

const (
	GameTypeNone GameType = iota
	GameTypeCoinFlip
	GameTypeSixSidedDiceRoll
	GameTypeTwentySidedDiceRoll
)

func (g GameType) String() string {
	switch g {
	case GameTypeCoinFlip:
		return "coinflip"
	case GameTypeSixSidedDiceRoll:
		return "six_sided_dice"
	case GameTypeTwentySidedDiceRoll:
		return "twenty_sided_dice"
	default:
		return "none"
	}
}

// GameConfig is copied into every round at bet time and never re-read at
// settlement.
type GameConfig struct {
	NumRandomValues  uint8  `json:"num_random_values"`
	Min              uint32 `json:"min"`
	Max              uint32 `json:"max"`
	PayoutMultiplier uint32 `json:"payout_multiplier"`
}

// GameTypeFromID maps the wire game id onto a GameType. Id 0 is a valid
// GameType but has no config, so ResolveGame still rejects it.
func GameTypeFromID(id uint32) (GameType, error) {
	switch id {
	case 0:
		return GameTypeNone, nil
	case 1:
		return GameTypeCoinFlip, nil
	case 2:
		return GameTypeSixSidedDiceRoll, nil
	case 3:
		return GameTypeTwentySidedDiceRoll, nil
	default:
		return GameTypeNone, ErrInvalidGameType
	}
}

func (g GameType) Config() (GameConfig, error) {
	switch g {
	case GameTypeCoinFlip:
		return GameConfig{NumRandomValues: 1, Min: 1, Max: 2, PayoutMultiplier: 1}, nil
	case GameTypeSixSidedDiceRoll:
		return GameConfig{NumRandomValues: 1, Min: 1, Max: 6, PayoutMultiplier: 5}, nil
	case GameTypeTwentySidedDiceRoll:
		return GameConfig{NumRandomValues: 1, Min: 1, Max: 20, PayoutMultiplier: 19}, nil
	default:
		return GameConfig{}, ErrInvalidGameType
	}
}

// ResolveGame is the catalog lookup used at bet placement.
func ResolveGame(id uint32) (GameType, GameConfig, error) {
	gameType, err := GameTypeFromID(id)
	if err != nil {
		return GameTypeNone, GameConfig{}, err
	}
	cfg, err := gameType.Config()
	if err != nil {
		return GameTypeNone, GameConfig{}, err
	}
	return gameType, cfg, nil
}

type CatalogEntry struct {
	ID     uint32     `json:"id"`
	Name   string     `json:"name"`
	Config GameConfig `json:"config"`
}

func Catalog() []CatalogEntry {
	games := []GameType{GameTypeCoinFlip, GameTypeSixSidedDiceRoll, GameTypeTwentySidedDiceRoll}
	entries := make([]CatalogEntry, 0, len(games))
	for _, g := range games {
		cfg, _ := g.Config()
		entries = append(entries, CatalogEntry{ID: uint32(g), Name: g.String(), Config: cfg})
	}
	return entries
}
