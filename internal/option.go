package internal

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	fixedDB bool
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithFixedDB pins every request to the configured database. MCP tool calls
// then ignore their db argument.
func WithFixedDB(fixed bool) Option {
	return func(a *application) {
		a.fixedDB = fixed
	}
}

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, errConfigRequired
	}
	return app, nil
}
