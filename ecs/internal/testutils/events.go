package testutils

// Events.

type PlayerDeathEvent struct{ Value int }

func (PlayerDeathEvent) Name() string { return "player-death" }

type ItemDropEvent struct{ Value int }

func (ItemDropEvent) Name() string { return "item-drop" }
