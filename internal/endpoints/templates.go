package endpoints

const appRouteTemplate = `import { NextResponse } from 'next/server'
import { prisma } from '@/lib/prisma'

export async function GET() {
  try {
    const items = await prisma.{{.Accessor}}.findMany()
    return NextResponse.json(items)
  } catch (error) {
    console.error('GET /api/{{.Route}} failed', error)
    return NextResponse.json({ error: 'Failed to fetch {{.Name}} records' }, { status: 500 })
  }
}

export async function POST(request: Request) {
  try {
    const body = await request.json()
{{- range .Required}}
    if (!{{prop "body" .}}) {
      return NextResponse.json({ error: '{{js .}} is required' }, { status: 400 })
    }
{{- end}}
    const item = await prisma.{{.Accessor}}.create({ data: body })
    return NextResponse.json(item, { status: 201 })
  } catch (error) {
    console.error('POST /api/{{.Route}} failed', error)
    return NextResponse.json({ error: 'Failed to create {{.Name}}' }, { status: 500 })
  }
}

export async function PUT(request: Request) {
  try {
    const { {{.ID}}, ...data } = await request.json()
    if ({{.ID}} === undefined || {{.ID}} === null) {
      return NextResponse.json({ error: '{{.ID}} is required' }, { status: 400 })
    }
    const item = await prisma.{{.Accessor}}.update({ where: { {{.ID}} }, data })
    return NextResponse.json(item)
  } catch (error) {
    console.error('PUT /api/{{.Route}} failed', error)
    return NextResponse.json({ error: 'Failed to update {{.Name}}' }, { status: 500 })
  }
}

export async function DELETE(request: Request) {
  try {
    const { searchParams } = new URL(request.url)
    const {{.ID}} = searchParams.get('{{.ID}}')
    if (!{{.ID}}) {
      return NextResponse.json({ error: '{{.ID}} is required' }, { status: 400 })
    }
    await prisma.{{.Accessor}}.delete({ where: { {{.ID}}: {{if .NumericID}}Number({{.ID}}){{else}}{{.ID}}{{end}} } })
    return NextResponse.json({ success: true })
  } catch (error) {
    console.error('DELETE /api/{{.Route}} failed', error)
    return NextResponse.json({ error: 'Failed to delete {{.Name}}' }, { status: 500 })
  }
}
`

const pagesRouteTemplate = `import type { NextApiRequest, NextApiResponse } from 'next'
import { prisma } from '@/lib/prisma'

export default async function handler(req: NextApiRequest, res: NextApiResponse) {
  try {
    switch (req.method) {
      case 'GET': {
        const items = await prisma.{{.Accessor}}.findMany()
        return res.status(200).json(items)
      }
      case 'POST': {
        const body = req.body
{{- range .Required}}
        if (!{{prop "body" .}}) {
          return res.status(400).json({ error: '{{js .}} is required' })
        }
{{- end}}
        const item = await prisma.{{.Accessor}}.create({ data: body })
        return res.status(201).json(item)
      }
      case 'PUT': {
        const { {{.ID}}, ...data } = req.body
        if ({{.ID}} === undefined || {{.ID}} === null) {
          return res.status(400).json({ error: '{{.ID}} is required' })
        }
        const item = await prisma.{{.Accessor}}.update({ where: { {{.ID}} }, data })
        return res.status(200).json(item)
      }
      case 'DELETE': {
        const {{.ID}} = req.query.{{.ID}} as string
        if (!{{.ID}}) {
          return res.status(400).json({ error: '{{.ID}} is required' })
        }
        await prisma.{{.Accessor}}.delete({ where: { {{.ID}}: {{if .NumericID}}Number({{.ID}}){{else}}{{.ID}}{{end}} } })
        return res.status(200).json({ success: true })
      }
      default:
        res.setHeader('Allow', ['GET', 'POST', 'PUT', 'DELETE'])
        return res.status(405).json({ error: 'Method ' + req.method + ' not allowed' })
    }
  } catch (error) {
    console.error(req.method + ' /api/{{.Route}} failed', error)
    return res.status(500).json({ error: 'Internal server error' })
  }
}
`

const prismaClientTemplate = `import { PrismaClient } from '@prisma/client'

const globalForPrisma = globalThis as unknown as { prisma?: PrismaClient }

export const prisma = globalForPrisma.prisma ?? new PrismaClient()

if (process.env.NODE_ENV !== 'production') globalForPrisma.prisma = prisma
`
