package models

// All returns every model, in dependency order, for AutoMigrate in tests and tooling.
func All() []any {
	return []any{
		&UserModel{},
		&ProfessionModel{},
		&ClientModel{},
		&VehicleModel{},
		&CompanyModel{},
		&RateRowModel{},
		&ContractModel{},
		&PolicyNumberModel{},
		&BordereauModel{},
		&BordereauLineModel{},
		&CertificateModel{},
		&DocumentModel{},
	}
}
