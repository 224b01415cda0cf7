package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/lunchpick/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"title":           &graphql.Field{Type: graphql.String},
			"category":        &graphql.Field{Type: graphql.String},
			"address":         &graphql.Field{Type: graphql.String},
			"position_system": &graphql.Field{Type: graphql.String},
			"lat":             &graphql.Field{Type: graphql.Float, Description: "Set for GEODETIC positions"},
			"lng":             &graphql.Field{Type: graphql.Float, Description: "Set for GEODETIC positions"},
			"x":               &graphql.Field{Type: graphql.Float, Description: "TM128 easting, set for PLANAR positions"},
			"y":               &graphql.Field{Type: graphql.Float, Description: "TM128 northing, set for PLANAR positions"},
			"distance":        &graphql.Field{Type: graphql.Float, Description: "Meters from the origin"},
		},
	})

	recommendationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Recommendation",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"state":       &graphql.Field{Type: graphql.String},
			"strategy":    &graphql.Field{Type: graphql.String},
			"provider":    &graphql.Field{Type: graphql.String},
			"region_hint": &graphql.Field{Type: graphql.String},
			"origin":      &graphql.Field{Type: coordinateType},
			"items":       &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(placeType)))},
		},
	})

	providerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Provider",
		Fields: graphql.Fields{
			"name":              &graphql.Field{Type: graphql.String},
			"kind":              &graphql.Field{Type: graphql.String},
			"active":            &graphql.Field{Type: graphql.Boolean},
			"needs_region_hint": &graphql.Field{Type: graphql.Boolean},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"recommend": &graphql.Field{
				Type:        recommendationType,
				Description: "Recommend eating places near a coordinate",
				Args: graphql.FieldConfigArgument{
					"lat":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"strategy": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Recommender == nil {
						return nil, fmt.Errorf("recommender not configured")
					}
					lat, _ := p.Args["lat"].(float64)
					lng, _ := p.Args["lng"].(float64)
					raw, _ := p.Args["strategy"].(string)

					strategy, err := domain.ParseStrategy(raw, deps.Recommender.DefaultStrategy())
					if err != nil {
						return nil, publicError(err)
					}
					rec, err := deps.Recommender.Recommend(p.Context, domain.Coordinate{Lat: lat, Lng: lng}, strategy)
					if err != nil {
						return nil, publicError(err)
					}
					return recommendationMap(rec), nil
				},
			},
			"providers": &graphql.Field{
				Type:        graphql.NewList(providerType),
				Description: "List registered search and geocode providers",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Providers == nil {
						return []interface{}{}, nil
					}
					return deps.Providers.Describe(), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// publicError hides upstream detail from GraphQL clients.
func publicError(err error) error {
	e := apiErrorFor(err)
	return fmt.Errorf("%s: %s", e.Code, e.Error)
}

func recommendationMap(rec *domain.Recommendation) map[string]interface{} {
	items := make([]map[string]interface{}, 0, len(rec.Items))
	for _, c := range rec.Items {
		item := map[string]interface{}{
			"title":           c.Title,
			"category":        c.Category,
			"address":         c.Address,
			"position_system": string(c.Position.System()),
		}
		if g, ok := c.Position.Geodetic(); ok {
			item["lat"], item["lng"] = g.Lat, g.Lng
		}
		if pt, ok := c.Position.Planar(); ok {
			item["x"], item["y"] = pt.X, pt.Y
		}
		if c.Distance != nil {
			item["distance"] = *c.Distance
		}
		items = append(items, item)
	}
	return map[string]interface{}{
		"id":          rec.ID,
		"state":       string(rec.State),
		"strategy":    string(rec.Strategy),
		"provider":    rec.Provider,
		"region_hint": rec.RegionHint,
		"origin":      map[string]interface{}{"lat": rec.Origin.Lat, "lng": rec.Origin.Lng},
		"items":       items,
	}
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadInput(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(result)
	}
}
