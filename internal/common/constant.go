package common

// AuthorizationHeaderName carries the bearer access token on inbound HTTP requests.
const AuthorizationHeaderName = "Authorization"

// SystemActor is recorded as createdBy on instances produced by the generator,
// so audit trails can tell automated creation from manual creation.
const SystemActor = "system"
