// Package di provides dependency injection container
package di

import (
	"github.com/ssargent/shortlinks/pkg/api" //nolint:depguard
)

// Container holds all the dependencies for the application
type Container struct {
	serviceFactory api.ServiceFactory
	serverFactory  api.ServerFactory
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	services := api.NewServiceFactory()
	return &Container{
		serviceFactory: services,
		serverFactory:  api.NewServerFactory(services),
	}
}

// GetServiceFactory returns the shortener service factory
func (c *Container) GetServiceFactory() api.ServiceFactory {
	return c.serviceFactory
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetServiceFactory allows overriding the service factory (for testing)
func (c *Container) SetServiceFactory(factory api.ServiceFactory) {
	c.serviceFactory = factory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}
