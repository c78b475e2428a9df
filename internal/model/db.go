package model

// All lists every table, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&SallaUser{},
		&Account{},
		&SallaStore{},
		&ChatGPTResponse{},
		&UserPrompt{},
		&SallaUserSubscription{},
		&SallaWebhookLog{},
		&StaticPage{},
		&PromptTemplate{},
	}
}
