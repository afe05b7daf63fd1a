/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package reconfig

import (
	"crypto/tls"
	"github.com/codeallergy/cloudglue"
	"github.com/codeallergy/cloudglue/cloud"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"reflect"
	"strconv"
)

var RedisClientClass = reflect.TypeOf((*redis.Client)(nil))

/**
Replaces *redis.Client bean by the client of the bound redis service.
Pool size and timeouts of the displaced client are kept, the displaced client is closed.
The rediss scheme turns on TLS. A database path that is not a number selects database 0.
*/

type RedisConfigurer struct {
	log *zap.Logger
}

func (t *RedisConfigurer) setLogger(log *zap.Logger) {
	t.log = log
}

func (t *RedisConfigurer) Capability() string {
	return "redis-client"
}

func (t *RedisConfigurer) Kind() cloud.ServiceKind {
	return cloud.Redis
}

func (t *RedisConfigurer) Slots(registry cloudglue.BeanRegistry) []cloudglue.Bean {
	return registry.BeansOfType(RedisClientClass)
}

func (t *RedisConfigurer) Create(info cloud.ServiceInfo, displaced cloudglue.Bean) (interface{}, error) {
	r, ok := info.(*cloud.RedisServiceInfo)
	if !ok {
		return nil, errors.Errorf("service '%s' is not redis, kind '%s'", info.ID(), info.Kind())
	}
	opts := &redis.Options{
		Addr:     r.Addr(),
		Username: r.Username(),
		Password: r.Password(),
	}
	if path := r.Path(); path != "" {
		if db, err := strconv.Atoi(path); err == nil {
			opts.DB = db
		} else if t.log != nil {
			t.log.Warn("Redis database is not a number, use database 0", zap.String("service", r.ID()), zap.String("path", path))
		}
	}
	prev, _ := displacedObject(displaced).(*redis.Client)
	if r.Scheme() == "rediss" {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
		if prev != nil && prev.Options().TLSConfig != nil {
			opts.TLSConfig = prev.Options().TLSConfig.Clone()
		}
		opts.TLSConfig.ServerName = r.Host()
	}
	if prev != nil {
		p := prev.Options()
		opts.PoolSize = p.PoolSize
		opts.MinIdleConns = p.MinIdleConns
		opts.MaxRetries = p.MaxRetries
		opts.DialTimeout = p.DialTimeout
		opts.ReadTimeout = p.ReadTimeout
		opts.WriteTimeout = p.WriteTimeout
		opts.PoolTimeout = p.PoolTimeout
	}
	return redis.NewClient(opts), nil
}
