package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/spotfinder/internal/core/domain"
)

var errInvalidCenter = fmt.Errorf("%w: lat must be within [-90, 90] and lng within [-180, 180]", domain.ErrInvalidQuery)

func placeFields(geoPoint *graphql.Object) graphql.Fields {
	str := func(f func(domain.Place) string) *graphql.Field {
		return &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (any, error) {
			return f(p.Source.(domain.Place)), nil
		}}
	}
	return graphql.Fields{
		"id":           str(func(p domain.Place) string { return p.ID }),
		"source":       str(func(p domain.Place) string { return string(p.Source) }),
		"name":         str(func(p domain.Place) string { return p.Name }),
		"description":  str(func(p domain.Place) string { return p.Description }),
		"address":      str(func(p domain.Place) string { return p.Address }),
		"city":         str(func(p domain.Place) string { return p.City }),
		"state":        str(func(p domain.Place) string { return p.State }),
		"zip":          str(func(p domain.Place) string { return p.Zip }),
		"category":     str(func(p domain.Place) string { return p.Category }),
		"phone":        str(func(p domain.Place) string { return p.Phone }),
		"website":      str(func(p domain.Place) string { return p.Website }),
		"openingHours": str(func(p domain.Place) string { return p.OpeningHours }),
		"location": &graphql.Field{Type: geoPoint, Resolve: func(p graphql.ResolveParams) (any, error) {
			return p.Source.(domain.Place).Location, nil
		}},
		"amenities": &graphql.Field{Type: graphql.NewList(graphql.String), Resolve: func(p graphql.ResolveParams) (any, error) {
			return p.Source.(domain.Place).Amenities, nil
		}},
		"images": &graphql.Field{Type: graphql.NewList(graphql.String), Resolve: func(p graphql.ResolveParams) (any, error) {
			return p.Source.(domain.Place).Images, nil
		}},
		"distanceKm": &graphql.Field{Type: graphql.Float, Resolve: func(p graphql.ResolveParams) (any, error) {
			return p.Source.(domain.Place).DistanceKm, nil
		}},
		"distanceMiles": &graphql.Field{Type: graphql.Float, Resolve: func(p graphql.ResolveParams) (any, error) {
			return p.Source.(domain.Place).DistanceMiles, nil
		}},
	}
}

// buildSchema creates the GraphQL schema wired to the search service.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float, Resolve: func(p graphql.ResolveParams) (any, error) {
				return p.Source.(domain.GeoPoint).Lat, nil
			}},
			"lng": &graphql.Field{Type: graphql.Float, Resolve: func(p graphql.ResolveParams) (any, error) {
				return p.Source.(domain.GeoPoint).Lon, nil
			}},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Place",
		Fields: placeFields(geoPointType),
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"places": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Hybrid search over the catalog and OpenStreetMap",
				Args: graphql.FieldConfigArgument{
					"search":    &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"category":  &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"amenities": &graphql.ArgumentConfig{Type: graphql.NewList(graphql.String)},
					"lat":       &graphql.ArgumentConfig{Type: graphql.Float},
					"lng":       &graphql.ArgumentConfig{Type: graphql.Float},
					"radius":    &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: domain.DefaultRadiusMiles},
					"discover":  &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					q := domain.SearchQuery{
						Text:        p.Args["search"].(string),
						Category:    p.Args["category"].(string),
						RadiusMiles: p.Args["radius"].(float64),
						Discover:    p.Args["discover"].(bool),
					}
					if raw, ok := p.Args["amenities"].([]any); ok {
						for _, a := range raw {
							if s, ok := a.(string); ok {
								q.Amenities = append(q.Amenities, s)
							}
						}
					}
					lat, hasLat := p.Args["lat"].(float64)
					lng, hasLng := p.Args["lng"].(float64)
					if hasLat && hasLng {
						center := domain.GeoPoint{Lat: lat, Lon: lng}
						if !center.Valid() {
							return nil, errInvalidCenter
						}
						q.Center = &center
					}
					return deps.Search.Search(p.Context, q.Normalize())
				},
			},
			"nearby": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Catalog places near a point, closest first",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: domain.DefaultRadiusMiles},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					center := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lon: p.Args["lng"].(float64)}
					if !center.Valid() {
						return nil, errInvalidCenter
					}
					return deps.Search.Nearby(p.Context, center, p.Args["radius"].(float64))
				},
			},
			"place": &graphql.Field{
				Type:        placeType,
				Description: "Get a place by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					place, err := deps.Search.GetByID(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return *place, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
}

type gqlRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema build: " + err.Error())
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})
		return c.JSON(result)
	}
}
