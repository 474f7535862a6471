package recurring

import (
	"github.com/smallbiznis/billfold/internal/recurring/repository"
	"github.com/smallbiznis/billfold/internal/recurring/service"
	"go.uber.org/fx"
)

var Module = fx.Module("recurring.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
