package repository

//go:generate mockgen -source=./user.go -destination=../mocks/mock_user_repository.go -package=mocks UserRepositoryIface
//go:generate mockgen -source=./organization.go -destination=../mocks/mock_organization_repository.go -package=mocks OrganizationRepositoryIface
//go:generate mockgen -source=./identity.go -destination=../mocks/mock_identity_repository.go -package=mocks IdentityRepositoryIface
//go:generate mockgen -source=../auth/provider.go -destination=../mocks/mock_identity_provider.go -package=mocks Provider
