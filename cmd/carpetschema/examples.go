package main

import (
	"time"

	"github.com/google/uuid"

	"github.com/columnar-go/carpet"
)

type address struct {
	Street string `carpet:"street"`
	City   string `carpet:"city"`
}

type person struct {
	ID        uuid.UUID         `carpet:"id"`
	Name      string            `carpet:"name"`
	Age       *int32            `carpet:"age"`
	Tags      []string          `carpet:"tags"`
	Addresses []address         `carpet:"addresses"`
	Metadata  map[string]string `carpet:"metadata"`
	Balance   carpet.Decimal    `carpet:"balance,precision=18,scale=2"`
	CreatedAt time.Time         `carpet:"created_at,time_unit=micros"`
}

func init() {
	Register("person", person{})
}
