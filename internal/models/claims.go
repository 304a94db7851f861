package models

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ContextKey - тип для ключей контекста, чтобы избежать коллизий.
type ContextKey string

// PlayerContextKey - ключ, под которым middleware кладет ID игрока в контекст запроса.
const PlayerContextKey ContextKey = "player_id"

// Claims - полезная нагрузка JWT, выданного внешним identity-провайдером.
// Ядру от нее нужен только идентификатор игрока.
type Claims struct {
	UserID uuid.UUID `json:"uid"`
	jwt.RegisteredClaims
}
