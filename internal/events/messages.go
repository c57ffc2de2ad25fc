package events

// Event types emitted by the economy service and its collaborators.
const (
	TypeBoosterGranted   = "booster:granted"
	TypeBoosterOpened    = "booster:opened"
	TypeCooldownSkipped  = "booster:cooldown_skipped"
	TypeTimerTamper      = "timer:tamper"
	TypeCardSold         = "card:sold"
	TypeDuplicatesSold   = "card:duplicates_sold"
	TypeCurrencyChanged  = "currency:changed"
	TypeMilestoneReached = "milestone:reached"
	TypePurchaseSettled  = "purchase:settled"
	TypePurchaseFailed   = "purchase:failed"
	TypeNotificationDue  = "notification:due"
	TypeConfigReloaded   = "config:reloaded"
)

// BoosterGrantedEvent is sent when the cooldown timer or a purchase adds boosters.
type BoosterGrantedEvent struct {
	Granted      int    `json:"granted"`
	FreeBoosters int    `json:"freeBoosters"`
	Source       string `json:"source"` // "timer", "purchase" or "starter"
}

// DrawnCard describes one card revealed from a booster.
type DrawnCard struct {
	CatalogNumber int    `json:"catalogNumber"`
	Name          string `json:"name"`
	Rarity        string `json:"rarity"`
	IsNew         bool   `json:"isNew"`
}

// BoosterOpenedEvent is sent after a booster is opened and the card recorded.
type BoosterOpenedEvent struct {
	Card         DrawnCard `json:"card"`
	FreeBoosters int       `json:"freeBoosters"`
}

// CooldownSkippedEvent is sent when currency is spent to skip the wait.
type CooldownSkippedEvent struct {
	Cost         int `json:"cost"`
	FreeBoosters int `json:"freeBoosters"`
}

// TimerTamperEvent is sent when the wall clock moved backwards past the tolerance.
type TimerTamperEvent struct {
	PreviousAnchor float64 `json:"previousAnchor"`
	Now            float64 `json:"now"`
}

// CardSoldEvent is sent when a single card is sold.
type CardSoldEvent struct {
	CatalogNumber int    `json:"catalogNumber"`
	Name          string `json:"name"`
	Earned        int    `json:"earned"`
	Remaining     int    `json:"remaining"`
}

// DuplicatesSoldEvent is sent after a bulk duplicate sale.
type DuplicatesSoldEvent struct {
	Sold   int `json:"sold"`
	Earned int `json:"earned"`
}

// CurrencyChangedEvent is sent whenever the balance changes.
type CurrencyChangedEvent struct {
	Previous int    `json:"previous"`
	Current  int    `json:"current"`
	Delta    int    `json:"delta"`
	Source   string `json:"source"`
}

// MilestoneReachedEvent is sent once per completion threshold.
type MilestoneReachedEvent struct {
	Threshold int `json:"threshold"`
	Owned     int `json:"owned"`
	Total     int `json:"total"`
}

// PurchaseSettledEvent is sent after a verified purchase is applied.
type PurchaseSettledEvent struct {
	TransactionID string `json:"transactionId"`
	ProductID     string `json:"productId"`
	Kind          string `json:"kind"`
	Amount        int    `json:"amount"`
}

// PurchaseFailedEvent is sent when a purchase does not complete.
type PurchaseFailedEvent struct {
	ProductID string `json:"productId"`
	Reason    string `json:"reason"`
}

// NotificationDueEvent is sent when a scheduled reminder fires.
type NotificationDueEvent struct {
	ID      string  `json:"id"`
	Kind    string  `json:"kind"`
	Message string  `json:"message"`
	FireAt  float64 `json:"fireAt"`
}

// ConfigReloadedEvent is sent when the config file changes on disk.
type ConfigReloadedEvent struct {
	Path     string `json:"path"`
	Products int    `json:"products"`
}
